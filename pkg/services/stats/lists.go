package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/format"
)

// TopLists ranks observers by distinct species within the scope. With
// IncludeDelta a "Change" column compares against the same scope as of one
// year earlier.
func (l *Library) TopLists(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	title, subtitle := scopeLabels(s)
	order := s.Order()

	speciesPerObserver := func(eligible, scope string) string {
		return fmt.Sprintf(`SELECT observer_id, count(*) AS species
  FROM (
    SELECT DISTINCT observer_id, common_name
    FROM ebird
    WHERE %s%s
  ) d
  GROUP BY observer_id`, eligible, scope)
	}

	var sql string
	var post func(*domain.Table) error
	if s.IncludeDelta {
		sql = fmt.Sprintf(`WITH cur AS (
  %s
), prev AS (
  %s
)
SELECT cur.observer_id AS "Observer", cur.species AS "Species", cur.species - coalesce(prev.species, 0) AS "Change"
FROM cur
LEFT JOIN prev ON prev.observer_id = cur.observer_id
ORDER BY 2 %s, 1 ASC`,
			speciesPerObserver(l.Eligible(), l.scopePredicate(s)),
			speciesPerObserver(l.eligibleAt(l.asOf.AddDate(-1, 0, 0)), l.scopePredicate(prior(s))),
			order)
		post = formatDelta(2)
	} else {
		sql = fmt.Sprintf(`SELECT t.observer_id AS "Observer", t.species AS "Species"
FROM (
  %s
) t
ORDER BY 2 %s, 1 ASC`, speciesPerObserver(l.Eligible(), l.scopePredicate(s)), order)
	}

	return l.run(ctx, spec{
		name:     title + " " + subtitle,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{1},
		rankBy:   `"Species" ` + string(order),
		limit:    limitOf(s, l.limits.TopList),
		post:     post,
	})
}

func formatDelta(col int) func(*domain.Table) error {
	return func(t *domain.Table) error {
		for _, row := range t.Rows {
			if n, ok := row[col].(int64); ok {
				row[col] = format.Delta(n)
			}
		}
		return nil
	}
}

// MostSeenBirds ranks species by the number of observers who reported them.
func (l *Library) MostSeenBirds(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	verb := "Seen"
	if s.WithMedia {
		verb = "Documented"
	}
	subtitle := "Most People " + verb
	if s.Order() == domain.SortAsc {
		subtitle = "Fewest People " + verb
	}

	var title string
	switch {
	case s.Year > 0:
		title = "Year List"
		if s.LastXYears > 0 {
			subtitle += fmt.Sprintf(" %d-%d", s.FirstYear(), s.Year)
		} else {
			subtitle += fmt.Sprintf(" %d", s.Year)
		}
	case s.Month > 0:
		title = fmt.Sprintf("Month Life List (%s)", monthAbbr(s.Month))
		subtitle += " " + monthAbbr(s.Month)
	default:
		title = "Life List"
		subtitle += " All Time"
	}
	if s.WithMedia {
		title += " w/ Photo/Audio"
	}

	sql := fmt.Sprintf(`SELECT t.common_name AS "Species", count(*) AS "Birders"
FROM (
  SELECT DISTINCT observer_id, common_name
  FROM ebird
  WHERE %s%s
) t
GROUP BY t.common_name
ORDER BY 2 %s, 1 ASC
%s`, l.Eligible(), l.scopePredicate(s), s.Order(), limitClause(s, l.limits.MostSeen))

	return l.run(ctx, spec{
		name:     "Most " + verb + " " + subtitle,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   -1,
	})
}

// BigYears is the largest single-year species count per observer.
func (l *Library) BigYears(ctx context.Context, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", t.yr AS "Year", count(*) AS "Species"
FROM (
  SELECT DISTINCT observer_id, %s AS yr, common_name
  FROM ebird
  WHERE %s
) t
GROUP BY t.observer_id, t.yr
ORDER BY 3 DESC, 2 ASC, 1 ASC`, yearOf, l.Eligible())

	return l.run(ctx, spec{
		name:     "All-Time Top Year List",
		title:    "All-Time Top Year List",
		subtitle: "Biggest Big Year",
		sql:      sql,
		people:   0,
		ties:     []int{2, 1},
		rankBy:   `"Species" DESC, "Year" ASC`,
		limit:    l.orDefault(limit, l.limits.AllTimeBigs),
	})
}

// BigMonths is the largest single calendar month (yyyy-mm) count per observer.
func (l *Library) BigMonths(ctx context.Context, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", t.ym AS "Month", count(*) AS "Species"
FROM (
  SELECT DISTINCT observer_id, %s AS ym, common_name
  FROM ebird
  WHERE %s
) t
GROUP BY t.observer_id, t.ym
ORDER BY 3 DESC, 2 ASC, 1 ASC`, yearMonth, l.Eligible())

	return l.run(ctx, spec{
		name:     "All-Time Top Month List",
		title:    "All-Time Top Month List",
		subtitle: "Biggest Big Month",
		sql:      sql,
		people:   0,
		ties:     []int{2, 1},
		rankBy:   `"Species" DESC, "Month" ASC`,
		limit:    l.orDefault(limit, l.limits.AllTimeBigs),
	})
}

// BigDays is the largest single-day count per observer.
func (l *Library) BigDays(ctx context.Context, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", t.observation_date AS "Date", count(*) AS "Species"
FROM (
  SELECT DISTINCT observer_id, observation_date, common_name
  FROM ebird
  WHERE %s
) t
GROUP BY t.observer_id, t.observation_date
ORDER BY 3 DESC, 2 ASC, 1 ASC`, l.Eligible())

	return l.run(ctx, spec{
		name:     "All-Time Top Day List",
		title:    "All-Time Top Day List",
		subtitle: "Biggest Big Day",
		sql:      sql,
		people:   0,
		ties:     []int{2, 1},
		rankBy:   `"Species" DESC, "Date" ASC`,
		limit:    l.orDefault(limit, l.limits.AllTimeBigs),
	})
}

// EveryoneBigYears combines every checklist of a year into one team list.
func (l *Library) EveryoneBigYears(ctx context.Context, limit int) (*domain.Table, error) {
	return l.everyone(ctx, "Biggest Big Year (Everyone)", "Year", yearOf, limit)
}

func (l *Library) EveryoneBigMonths(ctx context.Context, limit int) (*domain.Table, error) {
	return l.everyone(ctx, "Biggest Big Month (Everyone)", "Month", yearMonth, limit)
}

func (l *Library) EveryoneBigDays(ctx context.Context, limit int) (*domain.Table, error) {
	return l.everyone(ctx, "Biggest Big Day (Everyone)", "Date", "observation_date", limit)
}

func (l *Library) everyone(ctx context.Context, title, column, period string, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT t.period AS %q, count(DISTINCT t.observer_id) AS "Birders", count(DISTINCT t.common_name) AS "Species"
FROM (
  SELECT %s AS period, observer_id, common_name
  FROM ebird
  WHERE %s
) t
GROUP BY t.period
ORDER BY 3 DESC, 1 ASC
LIMIT %d`, column, period, l.Eligible(), l.orDefault(limit, l.limits.AllTimeBigs))

	return l.run(ctx, spec{
		name:     title,
		title:    title,
		subtitle: title,
		sql:      sql,
		people:   -1,
	})
}

func (l *Library) orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
