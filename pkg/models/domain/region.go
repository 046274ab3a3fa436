package domain

// RegionLevel is the administrative depth of a region code.
type RegionLevel string

const (
	RegionCountry RegionLevel = "country"
	RegionState   RegionLevel = "state"
	RegionCounty  RegionLevel = "county"
)

// Region is a resolved region filter.
type Region struct {
	Code        string
	Level       RegionLevel
	Predicate   string // SQL boolean expression over the observation table
	Description string
}

// SubRegion is a named polygon inside a region (e.g. a ward or atlas block).
type SubRegion struct {
	Name string `yaml:"name"`
	WKT  string `yaml:"wkt"`
}
