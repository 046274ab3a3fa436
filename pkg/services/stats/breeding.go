package stats

import (
	"context"
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// BreedingScores scores each observer's highest breeding category per
// species: Confirmed 3, Probable 2, Possible 1.
func (l *Library) BreedingScores(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	title, subtitle := scopeLabels(s)
	subtitle += " Top Breeding Challenge Score"

	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer",
  cast(sum(CASE WHEN t.cat = 'C2' THEN 1 ELSE 0 END) AS bigint) AS "Poss",
  cast(sum(CASE WHEN t.cat = 'C3' THEN 1 ELSE 0 END) AS bigint) AS "Prob",
  cast(sum(CASE WHEN t.cat = 'C4' THEN 1 ELSE 0 END) AS bigint) AS "Conf",
  cast(sum(CASE WHEN t.cat = 'C4' THEN 3 WHEN t.cat = 'C3' THEN 2 WHEN t.cat = 'C2' THEN 1 ELSE 0 END) AS bigint) AS "Score"
FROM (
  SELECT observer_id, common_name, max(breeding_category) AS cat
  FROM ebird
  WHERE %s
    AND breeding_category IN ('C2', 'C3', 'C4')%s
  GROUP BY observer_id, common_name
) t
GROUP BY t.observer_id
ORDER BY 5 DESC, 1 ASC`, l.Eligible(), l.scopePredicate(s))

	return l.run(ctx, spec{
		name:     "Breeding Scores " + subtitle,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{4},
		rankBy:   `"Score" DESC`,
		limit:    limitOf(s, l.limits.Breeding),
	})
}

// BreedingCodedBirds counts checklists and species entries carrying a
// breeding code per observer.
func (l *Library) BreedingCodedBirds(ctx context.Context, s domain.Scope) (*domain.Table, error) {
	title, subtitle := scopeLabels(s)
	subtitle += " Most Coded Birds"

	sql := fmt.Sprintf(`SELECT t.observer_id AS "Observer", count(*) AS "Coded Lists", cast(sum(t.birds) AS bigint) AS "Coded Birds"
FROM (
  SELECT observer_id, sampling_event_identifier, count(*) AS birds
  FROM ebird
  WHERE %s
    AND breeding_category IN ('C2', 'C3', 'C4')%s
  GROUP BY observer_id, sampling_event_identifier
) t
GROUP BY t.observer_id
ORDER BY 3 DESC, 1 ASC`, l.Eligible(), l.scopePredicate(s))

	return l.run(ctx, spec{
		name:     "Breeding Coded Birds " + subtitle,
		title:    title,
		subtitle: subtitle,
		sql:      sql,
		people:   0,
		ties:     []int{2},
		rankBy:   `"Coded Birds" DESC`,
		limit:    limitOf(s, l.limits.Breeding),
	})
}

// BreedingCredits lists every species coded Probable or Confirmed in year
// with the number of observers who coded it, naming them when numToCredit
// or fewer did.
func (l *Library) BreedingCredits(ctx context.Context, year, numToCredit int, sort domain.SortOrder) (*domain.Table, error) {
	n := l.orDefault(numToCredit, l.limits.CreditNames)
	s := domain.Scope{Year: year, Sort: sort}
	_, subtitle := scopeLabels(s)

	sql := fmt.Sprintf(`SELECT t.common_name AS "Species", count(*) AS "#",
  CASE WHEN count(*) <= %d THEN string_agg(t.observer_id, ',' ORDER BY t.observer_id) END AS "Birders"
FROM (
  SELECT common_name, observer_id
  FROM ebird
  WHERE %s
    AND breeding_category IN ('C3', 'C4')%s
  GROUP BY common_name, observer_id
) t
GROUP BY t.common_name
ORDER BY 2 %s, 1 ASC`, n, l.Eligible(), l.scopePredicate(s), s.Order())

	return l.run(ctx, spec{
		name:     "Most Prone to Public Displays of Affection",
		title:    "Most Prone to Public Displays of Affection",
		subtitle: subtitle,
		description: "This lists every bird coded as Probable or Confirmed during the year, along with the number of people who coded it.  " +
			"Includes lists not specifically in the Atlas portal, and as elsewhere in this report the data is self-reported and unvetted, so it may differ from final Atlas figures. " +
			fmt.Sprintf("If %d or fewer birders coded it, their names are listed.", n),
		sql:    sql,
		people: -1,
		lists:  []int{2},
	})
}
