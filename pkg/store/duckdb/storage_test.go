package duckdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesObservationTable(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "duckdb-test-*")
	require.NoError(t, err)

	defer func() {
		err := os.RemoveAll(tmpDir)
		if err != nil {
			t.Errorf("failed to cleanup test directory: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Settings{
		DbPath: dbPath,
	})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	_, err = db.Exec(
		`INSERT INTO ebird (global_unique_identifier, category, common_name, observation_date, observer_id, sampling_event_identifier)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"URN:1", "species", "Blue Jay", "2020-05-01", "obsr1", "S1",
	)
	require.NoError(t, err)

	var count int
	var approved, reviewed, media bool
	err = db.QueryRow("SELECT COUNT(*), bool_and(approved), bool_or(reviewed), bool_or(has_media) FROM ebird WHERE observer_id = ?", "obsr1").
		Scan(&count, &approved, &reviewed, &media)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, approved)
	assert.False(t, reviewed)
	assert.False(t, media)
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM ebird").Scan(&count))
	assert.Equal(t, 0, count)
}
