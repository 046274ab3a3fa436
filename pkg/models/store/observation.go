package store

import "time"

// Observation is one species entry on a checklist, as stored in the ebird table.
type Observation struct {
	GlobalUniqueIdentifier  string
	Category                string
	CommonName              string
	ScientificName          string
	SubspeciesCommonName    string
	ObservationCount        *int64
	BehaviorCode            string
	BreedingCode            string
	BreedingCategory        string
	Country                 string
	CountryCode             string
	State                   string
	StateCode               string
	County                  string
	CountyCode              string
	AtlasBlock              string
	Locality                string
	LocalityID              string
	LocalityType            string
	Latitude                float64
	Longitude               float64
	ObservationDate         time.Time
	ObservationDOY          int
	TimeObservationsStarted *string
	ObserverID              string
	SamplingEventIdentifier string
	ProtocolCode            string
	ProjectCode             string
	DurationMinutes         *int64
	EffortDistanceKm        *float64
	EffortAreaHa            *float64
	NumberObservers         *int64
	AllSpeciesReported      bool
	GroupIdentifier         string
	HasMedia                bool
	Approved                bool
	Reviewed                bool
	Reason                  string
	TripComments            string
	SpeciesComments         string
}

// RegionNames are the human readable names attached to a region code.
type RegionNames struct {
	Country string
	State   string
	County  string
}

// CachedName is one entry of the observer name cache.
type CachedName struct {
	ObserverID  string
	DisplayName string
	ResolvedAt  time.Time
}
