package domain

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Scope is the per-call configuration of a metric query. The columns of the
// resulting table are derived from it deterministically.
type Scope struct {
	Year         int // 0 means all years
	Month        int // 1-12, only used when Year is 0
	LastXYears   int // window of years ending at Year
	WithMedia    bool
	RookiesSince int // exclude observers with records before Jan 1 of this year
	SubRegion    *SubRegion
	IncludeDelta bool
	Limit        int
	Sort         SortOrder
}

func (s Scope) Order() SortOrder {
	if s.Sort == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// FirstYear returns the first year included by a year scope.
func (s Scope) FirstYear() int {
	if s.LastXYears > 0 {
		return s.Year - s.LastXYears + 1
	}
	return s.Year
}

// ReviewPolicy selects how reviewed-and-rejected records are treated.
type ReviewPolicy string

const (
	ReviewExcludeRejected ReviewPolicy = "exclude-rejected"
	ReviewIncludeAll      ReviewPolicy = "include-all"
)
