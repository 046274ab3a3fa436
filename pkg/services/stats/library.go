// Package stats holds the metric queries of the annual report. Every metric
// builds one statement over the ebird table, runs it once and returns a
// domain.Table whose columns are fixed by the metric and its Scope.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/format"
	"github.com/ses4j/ebird-statistical-report/pkg/store/query"
)

const milesPerKm = 0.6213712

type Executor interface {
	Query(ctx context.Context, name, statement string) (*query.Result, error)
}

type Library struct {
	exec       Executor
	region     domain.Region
	asOf       time.Time
	review     domain.ReviewPolicy
	names      format.Resolver
	limits     Limits
	checklists string
}

type Option func(*Library)

func WithReviewPolicy(p domain.ReviewPolicy) Option {
	return func(l *Library) { l.review = p }
}

func WithNames(r format.Resolver) Option {
	return func(l *Library) { l.names = r }
}

func WithLimits(limits Limits) Option {
	return func(l *Library) { l.limits = limits }
}

// WithChecklistBaseURL sets the site used to link single checklists.
func WithChecklistBaseURL(base string) Option {
	return func(l *Library) { l.checklists = strings.TrimRight(base, "/") }
}

func New(exec Executor, region domain.Region, asOf time.Time, opts ...Option) (*Library, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is nil")
	}
	if region.Predicate == "" {
		return nil, fmt.Errorf("region %q has no predicate", region.Code)
	}

	l := &Library{
		exec:       exec,
		region:     region,
		asOf:       asOf,
		review:     domain.ReviewExcludeRejected,
		checklists: "https://ebird.org",
	}
	for _, opt := range opts {
		opt(l)
	}
	l.limits = l.limits.withDefaults()

	switch l.review {
	case domain.ReviewExcludeRejected, domain.ReviewIncludeAll:
	default:
		return nil, fmt.Errorf("unknown review policy %q", l.review)
	}
	return l, nil
}

func (l *Library) Limits() Limits {
	return l.limits
}

func (l *Library) AsOf() time.Time {
	return l.asOf
}

// base is the region, cutoff and review filter shared by every metric.
func (l *Library) base(asOf time.Time) string {
	clauses := []string{
		"(" + l.region.Predicate + ")",
		"observation_date <= " + dateLit(asOf),
	}
	if l.review == domain.ReviewExcludeRejected {
		clauses = append(clauses, "NOT (approved = false AND reviewed = true)")
	}
	return strings.Join(clauses, "\n  AND ")
}

// Eligible selects full species identifications (plus Rock Pigeon, which
// eBird files as a domestic form) up to the as-of cutoff.
func (l *Library) Eligible() string {
	return l.eligibleAt(l.asOf)
}

func (l *Library) eligibleAt(asOf time.Time) string {
	return l.base(asOf) + "\n  AND " + speciesLevel
}

const speciesLevel = "(category IN ('species', 'issf', 'form') OR common_name = 'Rock Pigeon')"

// spec describes how to turn one statement into a table.
type spec struct {
	name        string
	title       string
	subtitle    string
	description string
	sql         string
	people      int   // column holding one observer id, -1 for none
	lists       []int // columns holding comma separated observer ids
	ties        []int // ordering columns next to the person column
	// rankBy orders output columns by name, e.g. `"Species" DESC`. With a
	// limit, rows tied with the last kept row are fetched too and the table
	// is cut after ties have been sorted by display name.
	rankBy string
	limit  int
	post   func(*domain.Table) error
}

const rankColumn = "_rank"

// withTies keeps every row ranked at or above limit under order.
func withTies(sql, order string, limit int) string {
	return fmt.Sprintf(`SELECT * FROM (
  SELECT q.*, rank() OVER (ORDER BY %s) AS %s
  FROM (
%s
  ) q
) r
WHERE r.%s <= %d
ORDER BY r.%s`, order, rankColumn, sql, rankColumn, limit, rankColumn)
}

// dropRank removes the trailing rank column added by withTies.
func dropRank(res *query.Result) {
	n := len(res.Columns)
	if n == 0 || res.Columns[n-1] != rankColumn {
		return
	}
	res.Columns = res.Columns[:n-1]
	for i, r := range res.Rows {
		if len(r) == n {
			res.Rows[i] = r[:n-1]
		}
	}
}

func (l *Library) run(ctx context.Context, s spec) (*domain.Table, error) {
	statement := s.sql
	if s.limit > 0 && s.rankBy != "" {
		statement = withTies(s.sql, s.rankBy, s.limit)
	}
	res, err := l.exec.Query(ctx, s.name, statement)
	if err != nil {
		return nil, err
	}
	dropRank(res)

	t := &domain.Table{
		Title:       s.title,
		Subtitle:    s.subtitle,
		Description: s.description,
		Columns:     domain.Columns(res.Columns...),
		Rows:        make([]domain.Row, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		t.Rows = append(t.Rows, domain.Row(r))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if s.people >= 0 {
		if err := l.resolvePeople(ctx, t, s.people); err != nil {
			return nil, err
		}
		sortTiesByName(t.Rows, s.people, s.ties)
	}
	if s.limit > 0 && len(t.Rows) > s.limit {
		t.Rows = t.Rows[:s.limit]
	}
	for _, col := range s.lists {
		if err := l.resolveLists(ctx, t, col); err != nil {
			return nil, err
		}
	}
	if s.post != nil {
		if err := s.post(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (l *Library) resolve(ctx context.Context, id string) (string, error) {
	if l.names == nil {
		return id, nil
	}
	return l.names.Resolve(ctx, id)
}

func (l *Library) resolvePeople(ctx context.Context, t *domain.Table, col int) error {
	for _, row := range t.Rows {
		id, ok := row[col].(string)
		if !ok {
			continue
		}
		name, err := l.resolve(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Title, err)
		}
		row[col] = name
	}
	return nil
}

func (l *Library) resolveLists(ctx context.Context, t *domain.Table, col int) error {
	if l.names == nil {
		return nil
	}
	for _, row := range t.Rows {
		ids, ok := row[col].(string)
		if !ok || ids == "" {
			continue
		}
		joined, err := format.JoinNames(ctx, l.names, strings.Split(ids, ","))
		if err != nil {
			return fmt.Errorf("%s: %w", t.Title, err)
		}
		row[col] = joined
	}
	return nil
}

// sortTiesByName orders runs of rows with equal tie values by display name.
// Statements order by observer id, which is not the order readers expect.
func sortTiesByName(rows []domain.Row, nameCol int, ties []int) {
	if len(ties) == 0 {
		sortRun(rows, nameCol)
		return
	}
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && sameTies(rows[start], rows[i], ties) {
			continue
		}
		sortRun(rows[start:i], nameCol)
		start = i
	}
}

func sortRun(rows []domain.Row, nameCol int) {
	sort.SliceStable(rows, func(a, b int) bool {
		return format.Cell(rows[a][nameCol]) < format.Cell(rows[b][nameCol])
	})
}

func sameTies(a, b domain.Row, ties []int) bool {
	for _, c := range ties {
		if format.Cell(a[c]) != format.Cell(b[c]) {
			return false
		}
	}
	return true
}

func dateLit(t time.Time) string {
	return "DATE '" + t.Format("2006-01-02") + "'"
}

func yearStart(year int) string {
	return fmt.Sprintf("DATE '%04d-01-01'", year)
}

func yearEnd(year int) string {
	return fmt.Sprintf("DATE '%04d-12-31'", year)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

const (
	yearOf  = "cast(extract(year from observation_date) as integer)"
	monthOf = "cast(extract(month from observation_date) as integer)"
	dayOf   = "cast(extract(day from observation_date) as integer)"
)

var yearMonth = "cast(" + yearOf + " as varchar) || '-' || lpad(cast(" + monthOf + " as varchar), 2, '0')"

// round renders expr rounded to digits as a double in both DuckDB and PostgreSQL.
func round(expr string, digits int) string {
	return fmt.Sprintf("cast(round(cast(%s as numeric), %d) as float8)", expr, digits)
}

func monthAbbr(m int) string {
	return time.Month(m).String()[:3]
}

// relabelMonths replaces month numbers in col with their abbreviations.
func relabelMonths(col int) func(*domain.Table) error {
	return func(t *domain.Table) error {
		for _, row := range t.Rows {
			if m, ok := row[col].(int64); ok && m >= 1 && m <= 12 {
				row[col] = monthAbbr(int(m))
			}
		}
		return nil
	}
}
