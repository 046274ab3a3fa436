package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ObservationTableSchema = `
	CREATE TABLE IF NOT EXISTS ebird (
		global_unique_identifier VARCHAR PRIMARY KEY,
		category VARCHAR NOT NULL,
		common_name VARCHAR NOT NULL,
		scientific_name VARCHAR,
		subspecies_common_name VARCHAR,
		observation_count BIGINT,
		behavior_code VARCHAR,
		breeding_code VARCHAR,
		breeding_category VARCHAR,
		country VARCHAR,
		country_code VARCHAR,
		state VARCHAR,
		state_code VARCHAR,
		county VARCHAR,
		county_code VARCHAR,
		atlas_block VARCHAR,
		locality VARCHAR,
		locality_id VARCHAR,
		locality_type VARCHAR,
		latitude DOUBLE,
		longitude DOUBLE,
		observation_date DATE NOT NULL,
		observation_doy SMALLINT,
		time_observations_started VARCHAR,
		observer_id VARCHAR NOT NULL,
		sampling_event_identifier VARCHAR NOT NULL,
		protocol_code VARCHAR,
		project_code VARCHAR,
		duration_minutes BIGINT,
		effort_distance_km DOUBLE,
		effort_area_ha DOUBLE,
		number_observers BIGINT,
		all_species_reported BOOLEAN,
		group_identifier VARCHAR,
		has_media BOOLEAN NOT NULL DEFAULT false,
		approved BOOLEAN NOT NULL DEFAULT true,
		reviewed BOOLEAN NOT NULL DEFAULT false,
		reason VARCHAR,
		trip_comments VARCHAR,
		species_comments VARCHAR
	);
`

var bootQueries = []string{
	ObservationTableSchema,
}

// spatialQueries are only run when sub-region polygons are configured since
// the extension has to be available to the DuckDB installation.
var spatialQueries = []string{
	`INSTALL spatial;`,
	`LOAD spatial;`,
}

type Settings struct {
	DbPath  string
	Threads int
	Spatial bool
}

func NewDB(settings Settings) (*sql.DB, error) {
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", settings.DbPath, threads), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)
		if settings.Spatial {
			bootQueries = append(bootQueries, spatialQueries...)
		}

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
