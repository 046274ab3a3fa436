// Package ingest loads eBird Basic Dataset (EBD) text files into the
// observation store.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/store/observation"
)

var ErrMissingColumn = errors.New("missing required column")

const defaultBatchSize = 5000

// aliases maps older EBD header names to the current ones.
var aliases = map[string]string{
	"breeding_bird_atlas_code":     "breeding_code",
	"breeding_bird_atlas_category": "breeding_category",
}

var required = []string{
	"global_unique_identifier",
	"category",
	"common_name",
	"observation_date",
	"observer_id",
	"sampling_event_identifier",
}

type Loader struct {
	db    *sql.DB
	store observation.Store
	batch int
}

func NewLoader(db *sql.DB, s observation.Store, batch int) (*Loader, error) {
	if db == nil || s == nil {
		return nil, fmt.Errorf("loader needs a database and an observation store")
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Loader{db: db, store: s, batch: batch}, nil
}

// Load reads a tab separated EBD file and inserts every record in a single
// transaction. Nothing is kept when any record fails.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	logger := zerolog.Ctx(ctx)

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columnIndex(header)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("%s: %w", name, ErrMissingColumn)
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	txCtx := observation.WithLoadTx(ctx, tx)

	total := 0
	batch := make([]store.Observation, 0, l.batch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.Add(txCtx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		logger.Debug().Int("loaded", total).Msg("batch inserted")
		return nil
	}

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}

		obs, err := parse(cols, rec)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, obs)
		if len(batch) == l.batch {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logger.Info().Int("records", total).Msg("load finished")
	return total, nil
}

// snakeCase turns an EBD header like "OBSERVATION COUNT" into observation_count.
func snakeCase(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "/", "_", "-", "_").Replace(h)
	if alias, ok := aliases[h]; ok {
		return alias
	}
	return h
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := snakeCase(strings.TrimPrefix(h, "\ufeff"))
		if key == "" {
			continue
		}
		cols[key] = i
	}
	return cols
}

type row struct {
	cols map[string]int
	rec  []string
	err  error
}

func (r *row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r *row) integer(name string) *int64 {
	s := r.str(name)
	if s == "" || s == "X" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.fail(name, err)
		return nil
	}
	return &n
}

func (r *row) number(name string) *float64 {
	s := r.str(name)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(name, err)
		return nil
	}
	return &f
}

func (r *row) flag(name string) bool {
	switch strings.ToLower(r.str(name)) {
	case "1", "true", "t":
		return true
	default:
		return false
	}
}

func (r *row) fail(name string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
}

func parse(cols map[string]int, rec []string) (store.Observation, error) {
	r := &row{cols: cols, rec: rec}

	date, err := time.Parse("2006-01-02", r.str("observation_date"))
	if err != nil {
		return store.Observation{}, fmt.Errorf("observation_date: %w", err)
	}

	var started *string
	if s := r.str("time_observations_started"); s != "" {
		started = &s
	}

	var lat, lon float64
	if f := r.number("latitude"); f != nil {
		lat = *f
	}
	if f := r.number("longitude"); f != nil {
		lon = *f
	}

	obs := store.Observation{
		GlobalUniqueIdentifier:  r.str("global_unique_identifier"),
		Category:                r.str("category"),
		CommonName:              r.str("common_name"),
		ScientificName:          r.str("scientific_name"),
		SubspeciesCommonName:    r.str("subspecies_common_name"),
		ObservationCount:        r.integer("observation_count"),
		BehaviorCode:            r.str("behavior_code"),
		BreedingCode:            r.str("breeding_code"),
		BreedingCategory:        r.str("breeding_category"),
		Country:                 r.str("country"),
		CountryCode:             r.str("country_code"),
		State:                   r.str("state"),
		StateCode:               r.str("state_code"),
		County:                  r.str("county"),
		CountyCode:              r.str("county_code"),
		AtlasBlock:              r.str("atlas_block"),
		Locality:                r.str("locality"),
		LocalityID:              r.str("locality_id"),
		LocalityType:            r.str("locality_type"),
		Latitude:                lat,
		Longitude:               lon,
		ObservationDate:         date,
		ObservationDOY:          date.YearDay(),
		TimeObservationsStarted: started,
		ObserverID:              r.str("observer_id"),
		SamplingEventIdentifier: r.str("sampling_event_identifier"),
		ProtocolCode:            r.str("protocol_code"),
		ProjectCode:             r.str("project_code"),
		DurationMinutes:         r.integer("duration_minutes"),
		EffortDistanceKm:        r.number("effort_distance_km"),
		EffortAreaHa:            r.number("effort_area_ha"),
		NumberObservers:         r.integer("number_observers"),
		AllSpeciesReported:      r.flag("all_species_reported"),
		GroupIdentifier:         r.str("group_identifier"),
		HasMedia:                r.flag("has_media"),
		Approved:                r.flag("approved"),
		Reviewed:                r.flag("reviewed"),
		Reason:                  r.str("reason"),
		TripComments:            r.str("trip_comments"),
		SpeciesComments:         r.str("species_comments"),
	}
	if r.err != nil {
		return store.Observation{}, r.err
	}
	for _, name := range required {
		if r.str(name) == "" {
			return store.Observation{}, fmt.Errorf("%s is empty", name)
		}
	}
	return obs, nil
}
