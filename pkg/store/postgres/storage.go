package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const ObservationTableSchema = `
	CREATE TABLE IF NOT EXISTS ebird (
		global_unique_identifier VARCHAR(50) PRIMARY KEY,
		category VARCHAR(20) NOT NULL,
		common_name TEXT NOT NULL,
		scientific_name TEXT,
		subspecies_common_name TEXT,
		observation_count BIGINT,
		behavior_code VARCHAR(2),
		breeding_code VARCHAR(2),
		breeding_category VARCHAR(2),
		country TEXT,
		country_code VARCHAR(2),
		state TEXT,
		state_code VARCHAR(30),
		county TEXT,
		county_code VARCHAR(30),
		atlas_block VARCHAR(20),
		locality TEXT,
		locality_id VARCHAR(10),
		locality_type VARCHAR(2),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		observation_date DATE NOT NULL,
		observation_doy SMALLINT,
		time_observations_started VARCHAR(8),
		observer_id VARCHAR(12) NOT NULL,
		sampling_event_identifier VARCHAR(12) NOT NULL,
		protocol_code VARCHAR(5),
		project_code VARCHAR(20),
		duration_minutes BIGINT,
		effort_distance_km DOUBLE PRECISION,
		effort_area_ha DOUBLE PRECISION,
		number_observers BIGINT,
		all_species_reported BOOLEAN,
		group_identifier VARCHAR(10),
		has_media BOOLEAN NOT NULL DEFAULT false,
		approved BOOLEAN NOT NULL DEFAULT true,
		reviewed BOOLEAN NOT NULL DEFAULT false,
		reason TEXT,
		trip_comments TEXT,
		species_comments TEXT
	);
`

var bootQueries = []string{
	ObservationTableSchema,
	`CREATE INDEX IF NOT EXISTS ebird_observer_idx ON ebird (observer_id)`,
	`CREATE INDEX IF NOT EXISTS ebird_county_idx ON ebird (county_code)`,
	`CREATE INDEX IF NOT EXISTS ebird_state_idx ON ebird (state_code)`,
	`CREATE INDEX IF NOT EXISTS ebird_date_idx ON ebird (observation_date)`,
}

type Settings struct {
	DSN string
}

// NewDB opens a PostgreSQL observation store through the pgx stdlib driver
// and makes sure the ebird table exists.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			db.Close()
			return nil, fmt.Errorf("boot postgres schema: %w", err)
		}
	}
	return db, nil
}
