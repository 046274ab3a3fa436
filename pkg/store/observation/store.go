package observation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
)

var ErrNotFound = errors.New("no matching observation")

// Store supports ingestion (Add) and the few point lookups the report needs
// outside of the analytical queries. Statements use numbered placeholders,
// which both DuckDB and PostgreSQL accept.
type Store interface {
	Add(ctx context.Context, records []store.Observation) error
	RegionNames(ctx context.Context, field, code string) (store.RegionNames, error)
	AnyChecklist(ctx context.Context, observerID string) (string, error)
	Count(ctx context.Context) (int64, error)
}

type observationStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &observationStore{
		db: db,
	}, nil
}

var insertColumns = []string{
	"global_unique_identifier", "category", "common_name", "scientific_name", "subspecies_common_name",
	"observation_count", "behavior_code", "breeding_code", "breeding_category",
	"country", "country_code", "state", "state_code", "county", "county_code",
	"atlas_block", "locality", "locality_id", "locality_type", "latitude", "longitude",
	"observation_date", "observation_doy", "time_observations_started", "observer_id",
	"sampling_event_identifier", "protocol_code", "project_code", "duration_minutes",
	"effort_distance_km", "effort_area_ha", "number_observers", "all_species_reported",
	"group_identifier", "has_media", "approved", "reviewed", "reason",
	"trip_comments", "species_comments",
}

func insertStatement() string {
	placeholders := make([]string, len(insertColumns))
	for i := range insertColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO ebird (%s) VALUES (%s)",
		strings.Join(insertColumns, ", "), strings.Join(placeholders, ", "))
}

func (s *observationStore) Add(ctx context.Context, records []store.Observation) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := s.preparerFor(ctx).PrepareContext(ctx, insertStatement())
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx,
			r.GlobalUniqueIdentifier, r.Category, r.CommonName, r.ScientificName, r.SubspeciesCommonName,
			r.ObservationCount, r.BehaviorCode, r.BreedingCode, nullable(r.BreedingCategory),
			r.Country, r.CountryCode, r.State, r.StateCode, r.County, r.CountyCode,
			r.AtlasBlock, r.Locality, r.LocalityID, r.LocalityType, r.Latitude, r.Longitude,
			r.ObservationDate.Format("2006-01-02"), r.ObservationDOY, r.TimeObservationsStarted, r.ObserverID,
			r.SamplingEventIdentifier, r.ProtocolCode, r.ProjectCode, r.DurationMinutes,
			r.EffortDistanceKm, r.EffortAreaHa, r.NumberObservers, r.AllSpeciesReported,
			r.GroupIdentifier, r.HasMedia, r.Approved, r.Reviewed, r.Reason,
			r.TripComments, r.SpeciesComments,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.GlobalUniqueIdentifier, err)
		}
	}

	return nil
}

var regionFields = map[string]bool{
	"country_code": true,
	"state_code":   true,
	"county_code":  true,
}

func (s *observationStore) RegionNames(ctx context.Context, field, code string) (store.RegionNames, error) {
	if !regionFields[field] {
		return store.RegionNames{}, fmt.Errorf("unsupported region field %q", field)
	}
	query := fmt.Sprintf(`SELECT country, state, county FROM ebird WHERE %s = $1 LIMIT 1`, field)

	var country, state, county sql.NullString
	err := s.db.QueryRowContext(ctx, query, code).Scan(&country, &state, &county)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RegionNames{}, fmt.Errorf("region %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return store.RegionNames{}, fmt.Errorf("lookup region %s: %w", code, err)
	}
	return store.RegionNames{Country: country.String, State: state.String, County: county.String}, nil
}

func (s *observationStore) AnyChecklist(ctx context.Context, observerID string) (string, error) {
	var checklist string
	err := s.db.QueryRowContext(ctx,
		`SELECT sampling_event_identifier FROM ebird WHERE observer_id = $1 ORDER BY observation_date DESC LIMIT 1`,
		observerID,
	).Scan(&checklist)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("observer %s: %w", observerID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lookup checklist for %s: %w", observerID, err)
	}
	return checklist, nil
}

func (s *observationStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ebird`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return total, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
