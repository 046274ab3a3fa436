package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// TopSingleLists ranks single checklists within eBird guidelines (under
// maxHours and maxMiles) by species. The private _url column links the checklist.
func (l *Library) TopSingleLists(ctx context.Context, maxHours, maxMiles float64, limit int) (*domain.Table, error) {
	if maxHours <= 0 {
		maxHours = l.limits.SingleListMaxHours
	}
	if maxMiles <= 0 {
		maxMiles = l.limits.SingleListMaxMiles
	}

	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer",
  min(t.observation_date) AS "Date",
  min(t.locality) AS "Locality",
  %s AS "Hours",
  count(*) AS "Species",
  %s || t.sampling_event_identifier AS "_url"
FROM (
  SELECT DISTINCT observer_id, sampling_event_identifier, observation_date, duration_minutes, locality, common_name
  FROM ebird
  WHERE %s
    AND duration_minutes IS NOT NULL
    AND duration_minutes < %g * 60
    AND (effort_distance_km IS NULL OR effort_distance_km * %g < %g)
) t
GROUP BY t.observer_id, t.sampling_event_identifier
ORDER BY 5 DESC, 2 ASC, 1 ASC`,
		round("min(t.duration_minutes) / 60.0", 1),
		quote(l.checklists+"/checklist/"),
		l.Eligible(), maxHours, milesPerKm, maxMiles)

	return l.run(ctx, spec{
		name:     "All-Time Top Single List",
		title:    "All-Time Top Single List",
		subtitle: fmt.Sprintf("Biggest List (under %gh, %gmi)", maxHours, maxMiles),
		sql:      sql,
		people:   0,
		ties:     []int{4, 1},
		rankBy:   `"Species" DESC, "Date" ASC`,
		limit:    l.orDefault(limit, l.limits.SingleList),
	})
}

// SpeciesPerHour averages species per list-hour over complete stationary and
// traveling checklists of at least minMinutes, for observers with at least
// minHours and minLists in year.
func (l *Library) SpeciesPerHour(ctx context.Context, year int, minHours float64, minLists, minMinutes, limit int) (*domain.Table, error) {
	if minHours <= 0 {
		minHours = l.limits.EfficiencyMinHours
	}
	minLists = l.orDefault(minLists, l.limits.EfficiencyMinLists)
	minMinutes = l.orDefault(minMinutes, l.limits.EfficiencyMinMinutes)

	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer",
  count(*) AS "Lists",
  cast(sum(t.num_species) AS bigint) AS "Sp",
  %s AS "Hours",
  %s AS "Avg Species Per List-Hour"
FROM (
  SELECT observer_id, min(duration_minutes) / 60.0 AS duration_hours, count(DISTINCT common_name) AS num_species
  FROM ebird
  WHERE %s
    AND duration_minutes IS NOT NULL
    AND duration_minutes >= %d
    AND protocol_code IN ('P21', 'P22')
    AND %s = %d
  GROUP BY observer_id, sampling_event_identifier
) t
GROUP BY t.observer_id
HAVING sum(t.duration_hours) >= %g
  AND count(*) >= %d
ORDER BY avg(t.num_species / t.duration_hours) DESC, 1 ASC`,
		round("sum(t.duration_hours)", 1),
		round("avg(t.num_species / t.duration_hours)", 2),
		l.Eligible(), minMinutes, yearOf, year, minHours, minLists)

	return l.run(ctx, spec{
		name:     "Species/Hour",
		title:    "Species/Hour",
		subtitle: fmt.Sprintf("Average Species Seen Per List-Hour (%d)", year),
		sql:      sql,
		people:   0,
		ties:     []int{4},
		rankBy:   `"Avg Species Per List-Hour" DESC`,
		limit:    l.orDefault(limit, l.limits.Efficiency),
	})
}

// wakingHoursPerYear is 16 waking hours a day for 365 days.
const wakingHoursPerYear = 5840

// TimeInField sums checklist durations of complete stationary and traveling
// lists of at most ten hours. lastXYears 0 means just year.
func (l *Library) TimeInField(ctx context.Context, year, lastXYears, limit int) (*domain.Table, error) {
	var title, subtitle, window string
	waking := wakingHoursPerYear
	if lastXYears > 0 {
		first := year - lastXYears + 1
		title = fmt.Sprintf("Most Time Spent In Field (last %d years)", lastXYears)
		subtitle = fmt.Sprintf("%d-%d", first, year)
		window = fmt.Sprintf("%s >= %d", yearOf, first)
		waking *= lastXYears
	} else {
		title = fmt.Sprintf("Most Time Spent In Field (%d)", year)
		subtitle = fmt.Sprintf("%d", year)
		window = fmt.Sprintf("%s = %d", yearOf, year)
	}

	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer",
  count(*) AS "Lists",
  %s AS "Days",
  cast(%s AS varchar) || '%%' AS "Waking"
FROM (
  SELECT observer_id, min(duration_minutes) AS duration_minutes
  FROM ebird
  WHERE %s
    AND duration_minutes IS NOT NULL
    AND duration_minutes <= 600
    AND protocol_code IN ('P21', 'P22')
    AND %s
  GROUP BY observer_id, sampling_event_identifier
) t
GROUP BY t.observer_id
ORDER BY 3 DESC, 1 ASC`,
		round("sum(t.duration_minutes) / 60.0 / 24.0", 2),
		round(fmt.Sprintf("100.0 * sum(t.duration_minutes) / 60.0 / %d", waking), 1),
		l.Eligible(), window)

	return l.run(ctx, spec{
		name:        title,
		title:       title,
		subtitle:    subtitle,
		description: "Sum of time listed on Stationary or Traveling counts with duration included. Excludes any lists over 10 hours.",
		sql:         sql,
		people:      0,
		ties:        []int{2},
		rankBy:      `"Days" DESC`,
		limit:       l.orDefault(limit, l.limits.TimeInField),
	})
}

// HonestBirders counts spuh and slash entries per observer.
func (l *Library) HonestBirders(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	var subtitle string
	switch {
	case s.Year > 0 && s.LastXYears > 0:
		subtitle = fmt.Sprintf("%d-%d", s.FirstYear(), s.Year)
	case s.Year > 0:
		subtitle = fmt.Sprintf("Most Honest Birder (%d)", s.Year)
	default:
		subtitle = "Most Honest Birder (All-Time)"
	}

	sql := fmt.Sprintf(`SELECT observer_id AS "Observer",
  cast(sum(CASE WHEN category = 'spuh' THEN 1 ELSE 0 END) AS bigint) AS "Spuhs",
  cast(sum(CASE WHEN category = 'slash' THEN 1 ELSE 0 END) AS bigint) AS "Slashes",
  count(*) AS "Total",
  count(DISTINCT common_name) AS "Unique"
FROM ebird
WHERE %s
  AND category IN ('slash', 'spuh')%s
GROUP BY observer_id
ORDER BY 4 DESC, 1 ASC`, l.base(l.asOf), l.scopePredicate(s))

	return l.run(ctx, spec{
		name:     subtitle,
		title:    subtitle,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{3},
		rankBy:   `"Total" DESC`,
		limit:    limitOf(s, l.limits.Honest),
	})
}

// MostChecklists counts distinct checklists per observer.
func (l *Library) MostChecklists(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	return l.effortCount(ctx, s, "Most Checklists", "Lists", "count(DISTINCT sampling_event_identifier)")
}

// MostLocations counts distinct localities per observer.
func (l *Library) MostLocations(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	return l.effortCount(ctx, s, "Most Locations", "Locations", "count(DISTINCT coalesce(locality_id, locality))")
}

func (l *Library) effortCount(ctx context.Context, s domain.Scope, title, column, expr string) (*domain.Table, error) {
	_, subtitle := scopeLabels(s)
	sql := fmt.Sprintf(`SELECT observer_id AS "Observer", %s AS %q
FROM ebird
WHERE %s%s
GROUP BY observer_id
ORDER BY 2 %s, 1 ASC`, expr, column, l.Eligible(), l.scopePredicate(s), s.Order())

	return l.run(ctx, spec{
		name:     title + " " + subtitle,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{1},
		rankBy:   fmt.Sprintf("%q %s", column, s.Order()),
		limit:    limitOf(s, l.limits.Effort),
	})
}

// MostDistance sums the distance of traveling checklists per observer, in miles.
func (l *Library) MostDistance(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	_, subtitle := scopeLabels(s)
	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", count(*) AS "Lists", %s AS "Miles"
FROM (
  SELECT observer_id, max(effort_distance_km) AS km
  FROM ebird
  WHERE %s
    AND effort_distance_km IS NOT NULL%s
  GROUP BY observer_id, sampling_event_identifier
) t
GROUP BY t.observer_id
ORDER BY 3 %s, 1 ASC`, round(fmt.Sprintf("sum(t.km) * %g", milesPerKm), 1), l.Eligible(), l.scopePredicate(s), s.Order())

	return l.run(ctx, spec{
		name:     "Most Distance " + subtitle,
		title:    "Most Distance Traveled",
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{2},
		rankBy:   `"Miles" ` + string(s.Order()),
		limit:    limitOf(s, l.limits.Effort),
	})
}
