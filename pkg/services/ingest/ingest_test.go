package ingest

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ses4j/ebird-statistical-report/pkg/store/duckdb"
	"github.com/ses4j/ebird-statistical-report/pkg/store/observation"
)

const header = "GLOBAL UNIQUE IDENTIFIER\tCATEGORY\tCOMMON NAME\tSCIENTIFIC NAME\tOBSERVATION COUNT\t" +
	"BREEDING BIRD ATLAS CODE\tBREEDING BIRD ATLAS CATEGORY\tCOUNTRY\tCOUNTRY CODE\tSTATE\tSTATE CODE\t" +
	"COUNTY\tCOUNTY CODE\tLOCALITY\tLATITUDE\tLONGITUDE\tOBSERVATION DATE\tTIME OBSERVATIONS STARTED\t" +
	"OBSERVER ID\tSAMPLING EVENT IDENTIFIER\tPROTOCOL CODE\tDURATION MINUTES\tEFFORT DISTANCE KM\t" +
	"ALL SPECIES REPORTED\tHAS MEDIA\tAPPROVED\tREVIEWED\t\n"

func line(fields ...string) string {
	return strings.Join(fields, "\t") + "\t\n"
}

type fixture struct {
	db     *sql.DB
	store  observation.Store
	loader *Loader
}

func setupFixture(t *testing.T, batch int) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:", Threads: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := observation.NewStore(db)
	require.NoError(t, err)
	l, err := NewLoader(db, s, batch)
	require.NoError(t, err)
	return &fixture{db: db, store: s, loader: l}
}

func TestNewLoader(t *testing.T) {
	_, err := NewLoader(nil, nil, 0)
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupFixture(t, 2)
		data := header +
			line("URN:1", "species", "Blue Jay", "Cyanocitta cristata", "3", "", "", "United States", "US", "District of Columbia", "US-DC",
				"District of Columbia", "US-DC-001", "Rock Creek Park", "38.95", "-77.05", "2020-05-01", "07:15:00",
				"obsr1", "S1", "P22", "60", "1.5", "1", "0", "1", "0") +
			line("URN:2", "species", "American Robin", "Turdus migratorius", "X", "FL ", "C4 ", "United States", "US", "District of Columbia", "US-DC",
				"District of Columbia", "US-DC-001", "Rock Creek Park", "38.95", "-77.05", "2020-05-01", "07:15:00",
				"obsr1", "S1", "P22", "60", "1.5", "1", "1", "1", "0") +
			line("URN:3", "spuh", "gull sp.", "Larinae sp.", "1", "", "", "United States", "US", "District of Columbia", "US-DC",
				"District of Columbia", "US-DC-001", "Hains Point", "38.86", "-77.02", "2020-12-31", "",
				"obsr2", "S2", "P21", "", "", "0", "0", "0", "1")

		n, err := f.loader.Load(ctx, strings.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		total, err := f.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		var count sql.NullInt64
		var code, category string
		var media bool
		require.NoError(t, f.db.QueryRow(
			`SELECT observation_count, breeding_code, breeding_category, has_media FROM ebird WHERE global_unique_identifier = 'URN:2'`,
		).Scan(&count, &code, &category, &media))
		assert.False(t, count.Valid)
		assert.Equal(t, "FL", code)
		assert.Equal(t, "C4", category)
		assert.True(t, media)

		var doy int
		var approved, reviewed bool
		var duration sql.NullInt64
		require.NoError(t, f.db.QueryRow(
			`SELECT observation_doy, approved, reviewed, duration_minutes FROM ebird WHERE global_unique_identifier = 'URN:3'`,
		).Scan(&doy, &approved, &reviewed, &duration))
		assert.Equal(t, 366, doy)
		assert.False(t, approved)
		assert.True(t, reviewed)
		assert.False(t, duration.Valid)
	})

	t.Run("bad record rolls back everything", func(t *testing.T) {
		f := setupFixture(t, 1)
		data := header +
			line("URN:1", "species", "Blue Jay", "", "1", "", "", "", "US", "", "US-DC", "", "US-DC-001", "", "38.9", "-77.0",
				"2020-05-01", "", "obsr1", "S1", "P22", "60", "", "1", "0", "1", "0") +
			line("URN:2", "species", "Blue Jay", "", "many", "", "", "", "US", "", "US-DC", "", "US-DC-001", "", "38.9", "-77.0",
				"2020-05-01", "", "obsr1", "S1", "P22", "60", "", "1", "0", "1", "0")

		_, err := f.loader.Load(ctx, strings.NewReader(data))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3")
		assert.Contains(t, err.Error(), "observation_count")

		total, err := f.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("missing column", func(t *testing.T) {
		f := setupFixture(t, 0)
		_, err := f.loader.Load(ctx, strings.NewReader("GLOBAL UNIQUE IDENTIFIER\tCATEGORY\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("bad date", func(t *testing.T) {
		f := setupFixture(t, 0)
		data := header +
			line("URN:1", "species", "Blue Jay", "", "1", "", "", "", "US", "", "US-DC", "", "US-DC-001", "", "38.9", "-77.0",
				"05/01/2020", "", "obsr1", "S1", "P22", "60", "", "1", "0", "1", "0")
		_, err := f.loader.Load(ctx, strings.NewReader(data))
		assert.Error(t, err)
	})
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "observation_count", snakeCase("OBSERVATION COUNT"))
	assert.Equal(t, "breeding_code", snakeCase("BREEDING BIRD ATLAS CODE"))
	assert.Equal(t, "breeding_category", snakeCase("BREEDING CATEGORY"))
	assert.Equal(t, "age_sex", snakeCase("AGE/SEX"))
}
