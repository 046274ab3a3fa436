package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

var yearStatRows = []string{
	"Birders",
	"Species",
	"Lists",
	"Time Logged in Field (in Days)",
	"Individual Birds",
}

// YearStats compares headline totals for the five years ending at year and
// for all time. Each period is one statement; the table is pivoted so
// periods are columns.
func (l *Library) YearStats(ctx context.Context, year int) (*domain.Table, error) {
	type period struct {
		label string
		where string
	}
	var periods []period
	for y := year - 4; y <= year; y++ {
		periods = append(periods, period{
			label: fmt.Sprintf("%d", y),
			where: fmt.Sprintf("%s\n  AND %s = %d", l.Eligible(), yearOf, y),
		})
	}
	periods = append(periods, period{label: "All Time", where: l.Eligible()})

	t := &domain.Table{Title: "Year Stats", Columns: domain.Columns("")}
	for _, label := range yearStatRows {
		t.Rows = append(t.Rows, domain.Row{label})
	}

	for _, p := range periods {
		sql := fmt.Sprintf(`SELECT
  (SELECT count(DISTINCT observer_id) FROM ebird WHERE %[1]s) AS birders,
  (SELECT count(DISTINCT common_name) FROM ebird WHERE %[1]s) AS species,
  (SELECT count(DISTINCT sampling_event_identifier) FROM ebird WHERE %[1]s) AS lists,
  (SELECT %[2]s FROM (
     SELECT max(duration_minutes) / 60.0 / 24.0 AS days FROM ebird WHERE %[1]s GROUP BY sampling_event_identifier
   ) d) AS days,
  (SELECT cast(sum(n.cnt) AS bigint) FROM (
     SELECT max(observation_count) AS cnt FROM ebird WHERE %[1]s GROUP BY sampling_event_identifier
   ) n) AS individuals`, p.where, round("sum(d.days)", 1))

		res, err := l.exec.Query(ctx, "Year Stats "+p.label, sql)
		if err != nil {
			return nil, err
		}
		if len(res.Rows) != 1 || len(res.Rows[0]) != len(yearStatRows) {
			return nil, fmt.Errorf("year stats %s: %w", p.label, domain.ErrRowShape)
		}

		t.Columns = append(t.Columns, domain.Column{Name: p.label})
		for i, v := range res.Rows[0] {
			t.Rows[i] = append(t.Rows[i], v)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewBirds lists species reported in year that were not reported in the
// previous year, with the last date they were seen before that.
func (l *Library) NewBirds(ctx context.Context, year int) (*domain.Table, error) {
	title := fmt.Sprintf("Reported in %d but Missed in %d", year, year-1)
	eligible := l.Eligible()

	sql := fmt.Sprintf(`SELECT cur.common_name AS "Species",
  CASE WHEN prev.last_seen IS NULL THEN 'n/a' ELSE cast(prev.last_seen AS varchar) END AS "Last Seen",
  cur.first_seen AS "First Reported",
  cur.birders AS "Birders",
  CASE WHEN cur.has_media THEN 'X' ELSE '' END AS "Documented"
FROM (
  SELECT common_name, count(DISTINCT observer_id) AS birders, min(observation_date) AS first_seen, bool_or(has_media) AS has_media
  FROM ebird
  WHERE %s
    AND observation_date >= %s
  GROUP BY common_name
) cur
LEFT JOIN (
  SELECT common_name, max(observation_date) AS last_seen
  FROM ebird
  WHERE %s
    AND observation_date <= %s
  GROUP BY common_name
) prev ON prev.common_name = cur.common_name
WHERE prev.last_seen IS NULL OR prev.last_seen < %s
ORDER BY prev.last_seen ASC NULLS FIRST, cur.common_name ASC`,
		eligible, yearStart(year), eligible, yearEnd(year-1), yearStart(year-1))

	return l.run(ctx, spec{
		name:     title,
		title:    title,
		subtitle: title,
		sql:      sql,
		people:   -1,
	})
}

// InfrequentVisitors lists species reported in at most maxYearsReported of
// the lastXYears ending at year.
func (l *Library) InfrequentVisitors(ctx context.Context, year, lastXYears, maxYearsReported int) (*domain.Table, error) {
	lastXYears = l.orDefault(lastXYears, l.limits.InfrequentYears)
	maxYearsReported = l.orDefault(maxYearsReported, l.limits.InfrequentMaxYears)
	title := fmt.Sprintf("Most Infrequent Visitors of the Last %d Years", lastXYears)

	sql := fmt.Sprintf(`SELECT common_name AS "Species",
  count(DISTINCT %[1]s) AS "Years Reported",
  count(DISTINCT observer_id) AS "Birders",
  max(observation_date) AS "Last Seen"
FROM ebird
WHERE %[2]s
  AND observation_date >= %[3]s
GROUP BY common_name
HAVING count(DISTINCT %[1]s) <= %[4]d
ORDER BY 2 ASC, 3 ASC, 4 ASC, 1 ASC`, yearOf, l.Eligible(), yearStart(year-lastXYears+1), maxYearsReported)

	return l.run(ctx, spec{
		name:     title,
		title:    title,
		subtitle: title,
		sql:      sql,
		people:   -1,
	})
}
