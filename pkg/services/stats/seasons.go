package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// FourSeasons sums each observer's best day in Spring (Mar-May), Summer
// (Jun-Jul), Fall (Aug-Nov) and Winter (Jan-Feb and Dec) of year.
func (l *Library) FourSeasons(ctx context.Context, year, limit int) (*domain.Table, error) {
	between := func(from, to string) string {
		return fmt.Sprintf("observation_date BETWEEN DATE '%04d-%s' AND DATE '%04d-%s'", year, from, year, to)
	}
	best := func(cond string) string {
		return fmt.Sprintf("coalesce(max(CASE WHEN %s THEN species END), 0)", cond)
	}

	sql := fmt.Sprintf(`WITH birdies AS (
  SELECT observer_id, observation_date, count(DISTINCT common_name) AS species
  FROM ebird
  WHERE %s
    AND observation_date BETWEEN %s AND %s
  GROUP BY observer_id, observation_date
), seasons AS (
  SELECT observer_id,
    %s AS spring,
    %s AS summer,
    %s AS fall,
    %s AS winter
  FROM birdies
  GROUP BY observer_id
)
SELECT observer_id AS "Observer", spring AS "Spring", summer AS "Summer", fall AS "Fall", winter AS "Winter",
  spring + summer + fall + winter AS "Score"
FROM seasons
ORDER BY 6 DESC, 1 ASC`,
		l.Eligible(), yearStart(year), yearEnd(year),
		best(between("03-01", "05-31")),
		best(between("06-01", "07-31")),
		best(between("08-01", "11-30")),
		best(fmt.Sprintf("(observation_date < DATE '%04d-03-01' OR observation_date >= DATE '%04d-12-01')", year, year)))

	return l.run(ctx, spec{
		name:     "Four Seasons Championship",
		title:    "Four Seasons Championship",
		subtitle: "Four Seasons Championship",
		description: "The Four Seasons Championship is a competition idea. Most Big Days are during migration, but they don't have to be! " +
			"The idea is to schedule a Big Day in the peak of each of the four seasons. Sum up the tally from each of the four days, and the person with the best score is the Champ. " +
			"Since this hasn't actually been organized, for now this ranking will suffice: The sum of each person's best day in each of the four seasons (Mar-May, Jun-Jul, Aug-Nov, Dec-Feb).",
		sql:    sql,
		people: 0,
		ties:   []int{5},
		rankBy: `"Score" DESC`,
		limit:  l.orDefault(limit, l.limits.FourSeasons),
	})
}

// EveryDayBigDay finds, for every calendar day, the best single-observer day
// ever recorded on that date. Ties on species go to the earliest year; all
// observers tied on that date are listed.
func (l *Library) EveryDayBigDay(ctx context.Context) (*domain.Table, error) {
	sql := fmt.Sprintf(`WITH days AS (
  SELECT observer_id, observation_date, %s AS m, %s AS d, count(DISTINCT common_name) AS species
  FROM ebird
  WHERE %s
  GROUP BY observer_id, observation_date
), ranked AS (
  SELECT observer_id, observation_date, m, d, species,
    rank() OVER (PARTITION BY m, d ORDER BY species DESC, observation_date ASC) AS rk
  FROM days
)
SELECT lpad(cast(m AS varchar), 2, '0') || '/' || lpad(cast(d AS varchar), 2, '0') AS "Day",
  string_agg(observer_id, ',' ORDER BY observer_id) AS "Birders",
  min(observation_date) AS "Date",
  max(species) AS "Species"
FROM ranked
WHERE rk = 1
GROUP BY m, d
ORDER BY m, d`, monthOf, dayOf, l.Eligible())

	return l.run(ctx, spec{
		name:     "Every Day is a Big Day",
		title:    "Every Day is a Big Day",
		subtitle: "Best Big Day on Every Date",
		description: "For every day of the calendar, the most species seen by one birder on that date in any year. " +
			"Ties go to the earliest year.",
		sql:    sql,
		people: -1,
		lists:  []int{1},
	})
}

// EveryMonthBigDay is EveryDayBigDay partitioned by month only.
func (l *Library) EveryMonthBigDay(ctx context.Context) (*domain.Table, error) {
	sql := fmt.Sprintf(`WITH days AS (
  SELECT observer_id, observation_date, %s AS m, count(DISTINCT common_name) AS species
  FROM ebird
  WHERE %s
  GROUP BY observer_id, observation_date
), ranked AS (
  SELECT observer_id, observation_date, m, species,
    rank() OVER (PARTITION BY m ORDER BY species DESC, observation_date ASC) AS rk
  FROM days
)
SELECT m AS "Month",
  string_agg(observer_id, ',' ORDER BY observer_id) AS "Birders",
  min(observation_date) AS "Date",
  max(species) AS "Species"
FROM ranked
WHERE rk = 1
GROUP BY m
ORDER BY m`, monthOf, l.Eligible())

	return l.run(ctx, spec{
		name:     "Biggest Day of Every Month",
		title:    "Biggest Day of Every Month",
		subtitle: "Biggest Day of Every Month",
		sql:      sql,
		people:   -1,
		lists:    []int{1},
		post:     relabelMonths(0),
	})
}
