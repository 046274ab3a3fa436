package observation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/store/duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:", Threads: 1})
	require.NoError(t, err)
	return db
}

func setupFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: s,
	}
}

func record(id, observer, checklist string, date time.Time) store.Observation {
	count := int64(1)
	return store.Observation{
		GlobalUniqueIdentifier:  id,
		Category:                "species",
		CommonName:              "Northern Cardinal",
		Country:                 "United States",
		CountryCode:             "US",
		State:                   "District of Columbia",
		StateCode:               "US-DC",
		County:                  "District of Columbia",
		CountyCode:              "US-DC-001",
		ObservationCount:        &count,
		ObservationDate:         date,
		ObservationDOY:          date.YearDay(),
		ObserverID:              observer,
		SamplingEventIdentifier: checklist,
		Approved:                true,
	}
}

func TestNewStore_NilDB(t *testing.T) {
	s, err := NewStore(nil)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestObservationStore_Add(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("success - add records", func(t *testing.T) {
		records := []store.Observation{
			record("URN:1", "obsr1", "S1", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
			record("URN:2", "obsr2", "S2", time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC)),
		}

		err := f.store.Add(ctx, records)
		require.NoError(t, err)

		total, err := f.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		var doy int
		require.NoError(t, f.db.QueryRow("SELECT observation_doy FROM ebird WHERE global_unique_identifier = 'URN:2'").Scan(&doy))
		assert.Equal(t, 123, doy)
	})

	t.Run("success - empty records", func(t *testing.T) {
		err := f.store.Add(ctx, nil)
		require.NoError(t, err)
	})

	t.Run("success - inside transaction", func(t *testing.T) {
		tx, err := f.db.BeginTx(ctx, nil)
		require.NoError(t, err)

		txCtx := WithLoadTx(ctx, tx)
		err = f.store.Add(txCtx, []store.Observation{
			record("URN:3", "obsr3", "S3", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		total, err := f.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("error - duplicate records", func(t *testing.T) {
		records := []store.Observation{
			record("URN:dup", "obsr1", "S9", time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)),
		}

		err := f.store.Add(ctx, records)
		require.NoError(t, err)

		err = f.store.Add(ctx, records)
		assert.Error(t, err)
	})
}

func TestObservationStore_RegionNames(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Add(ctx, []store.Observation{
		record("URN:1", "obsr1", "S1", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
	}))

	t.Run("county", func(t *testing.T) {
		names, err := f.store.RegionNames(ctx, "county_code", "US-DC-001")
		require.NoError(t, err)
		assert.Equal(t, "United States", names.Country)
		assert.Equal(t, "District of Columbia", names.State)
		assert.Equal(t, "District of Columbia", names.County)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.store.RegionNames(ctx, "state_code", "US-MD")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unsupported field", func(t *testing.T) {
		_, err := f.store.RegionNames(ctx, "locality", "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestObservationStore_AnyChecklist(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Add(ctx, []store.Observation{
		record("URN:1", "obsr1", "S1", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
		record("URN:2", "obsr1", "S2", time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)),
	}))

	checklist, err := f.store.AnyChecklist(ctx, "obsr1")
	require.NoError(t, err)
	assert.Equal(t, "S2", checklist)

	_, err = f.store.AnyChecklist(ctx, "obsr404")
	assert.ErrorIs(t, err, ErrNotFound)
}
