package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// closeoutPairs selects (observer, species[, year]) seen in all twelve
// calendar months, in any combination of years unless grouped by year.
func (l *Library) closeoutPairs(extra string, byYear bool) string {
	yearCol, yearGroup := "", ""
	if byYear {
		yearCol = ", " + yearOf + " AS yr"
		yearGroup = ", " + yearOf
	}
	return fmt.Sprintf(`SELECT observer_id, common_name%s
    FROM ebird
    WHERE %s%s
    GROUP BY observer_id, common_name%s
    HAVING count(DISTINCT %s) = 12`, yearCol, l.Eligible(), extra, yearGroup, monthOf)
}

// MonthCloseouts counts species each observer reported in every month.
// year 0 means all years combined.
func (l *Library) MonthCloseouts(ctx context.Context, year, limit int) (*domain.Table, error) {
	subtitle := "All-Time"
	extra := ""
	if year > 0 {
		subtitle = fmt.Sprintf("%d", year)
		extra = fmt.Sprintf("\n      AND %s = %d", yearOf, year)
	}
	title := "Month Closeouts - " + subtitle

	sql := fmt.Sprintf(`SELECT c.observer_id AS "Observer", count(*) AS "Species"
FROM (
  %s
) c
GROUP BY c.observer_id
ORDER BY 2 DESC, 1 ASC`, l.closeoutPairs(extra, false))

	return l.run(ctx, spec{
		name:     title,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{1},
		rankBy:   `"Species" DESC`,
		limit:    l.orDefault(limit, l.limits.Closeouts),
	})
}

// MonthCloseoutBestYears is the best single-year closeout count per observer.
func (l *Library) MonthCloseoutBestYears(ctx context.Context, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT c.observer_id AS "Observer", c.yr AS "Year", count(*) AS "Species"
FROM (
  %s
) c
GROUP BY c.observer_id, c.yr
ORDER BY 3 DESC, 2 ASC, 1 ASC`, l.closeoutPairs("", true))

	return l.run(ctx, spec{
		name:     "Month Closeouts -- Best Years",
		title:    "Month Closeouts -- Best Years",
		subtitle: "Best Years",
		sql:      sql,
		people:   0,
		ties:     []int{2, 1},
		rankBy:   `"Species" DESC, "Year" ASC`,
		limit:    l.orDefault(limit, l.limits.Closeouts),
	})
}

// MonthCloseoutBirds lists every species closed out by anyone, crediting
// observers by name when numToCredit or fewer did it.
func (l *Library) MonthCloseoutBirds(ctx context.Context, numToCredit int) (*domain.Table, error) {
	n := l.orDefault(numToCredit, l.limits.CreditNames)
	sql := fmt.Sprintf(`SELECT c.common_name AS "Species", count(*) AS "#",
  CASE WHEN count(*) <= %d THEN string_agg(c.observer_id, ',' ORDER BY c.observer_id) END AS "Birders"
FROM (
  %s
) c
GROUP BY c.common_name
ORDER BY 2 DESC, 1 ASC`, n, l.closeoutPairs("", false))

	return l.run(ctx, spec{
		name:     "All Month Closeout Birds",
		title:    "All Month Closeout Birds",
		subtitle: "All Month Closeout Birds",
		description: fmt.Sprintf("This is a list of all birds in the region that have been seen in every month of the year (in any year).  "+
			"If %d or fewer birders have closed it out, their names are listed.", n),
		sql:    sql,
		people: -1,
		lists:  []int{2},
	})
}

// MonthTicks counts distinct (month, species) pairs per observer.
func (l *Library) MonthTicks(ctx context.Context, limit int) (*domain.Table, error) {
	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", count(*) AS "Ticks", %s AS "Avg Per Mo."
FROM (
  SELECT DISTINCT %s AS mon, observer_id, common_name
  FROM ebird
  WHERE %s
) t
GROUP BY t.observer_id
ORDER BY 2 DESC, 1 ASC`, round("count(*) / 12.0", 1), monthOf, l.Eligible())

	return l.run(ctx, spec{
		name:     "Total Month Ticks",
		title:    "Total Month Ticks",
		subtitle: "All-Time Month Ticks",
		sql:      sql,
		people:   0,
		ties:     []int{1},
		rankBy:   `"Ticks" DESC`,
		limit:    l.orDefault(limit, l.limits.Closeouts),
	})
}
