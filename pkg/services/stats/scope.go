package stats

import (
	"fmt"
	"strings"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// scopePredicate renders the filters of s as additional AND clauses.
func (l *Library) scopePredicate(s domain.Scope) string {
	var b strings.Builder
	switch {
	case s.Year > 0 && s.LastXYears > 0:
		fmt.Fprintf(&b, "\n  AND %s >= %d", yearOf, s.FirstYear())
	case s.Year > 0:
		fmt.Fprintf(&b, "\n  AND %s = %d", yearOf, s.Year)
	case s.Month > 0:
		fmt.Fprintf(&b, "\n  AND %s = %d", monthOf, s.Month)
	}

	if s.WithMedia {
		b.WriteString("\n  AND has_media = true")
	}
	if s.RookiesSince > 0 {
		fmt.Fprintf(&b,
			"\n  AND observer_id NOT IN (SELECT DISTINCT observer_id FROM ebird WHERE (%s) AND observation_date < %s)",
			l.region.Predicate, yearStart(s.RookiesSince))
	}
	if s.SubRegion != nil && s.SubRegion.WKT != "" {
		fmt.Fprintf(&b, "\n  AND ST_Intersects(ST_GeomFromText(%s), ST_Point(longitude, latitude))", quote(s.SubRegion.WKT))
	}
	return b.String()
}

// scopeLabels derives the title and subtitle of a species list.
func scopeLabels(s domain.Scope) (string, string) {
	var title, subtitle string
	switch {
	case s.Year > 0:
		title = "Year List"
		if s.LastXYears > 0 {
			subtitle = fmt.Sprintf("%d-%d", s.FirstYear(), s.Year)
		} else {
			subtitle = fmt.Sprintf("%d", s.Year)
		}
	case s.Month > 0:
		title = fmt.Sprintf("Month Life List (%s)", monthAbbr(s.Month))
		subtitle = monthAbbr(s.Month)
	default:
		title = "Life List"
		subtitle = "All Time"
	}

	if s.WithMedia {
		title += " w/ Photo/Audio"
	}
	if s.RookiesSince > 0 {
		subtitle += " (Rookies)"
	}
	if s.SubRegion != nil {
		title += " " + s.SubRegion.Name
		subtitle = s.SubRegion.Name
	}
	return title, subtitle
}

func limitOf(s domain.Scope, def int) int {
	if s.Limit <= 0 {
		return def
	}
	return s.Limit
}

func limitClause(s domain.Scope, def int) string {
	return fmt.Sprintf("LIMIT %d", limitOf(s, def))
}

// prior shifts a scope one year back for year-over-year comparisons.
func prior(s domain.Scope) domain.Scope {
	p := s
	if p.Year > 0 {
		p.Year--
	}
	return p
}
