// Package integration exercises the full fix/revert flow against a
// throwaway SQLite database standing in for the production MySQL store.
package integration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ujcly/cheated-runs-fixer/internal/engine"
	"github.com/ujcly/cheated-runs-fixer/internal/store"
)

// The production store must satisfy the engine's Store interface.
var _ engine.Store = (*store.Store)(nil)

const schema = `
CREATE TABLE checkpoints (
	cp_id INTEGER PRIMARY KEY,
	mapid INTEGER NOT NULL,
	isend INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE checkpoint_connections (
	cp_id INTEGER NOT NULL,
	child_cp_id INTEGER NOT NULL,
	mapid INTEGER NOT NULL
);
CREATE TABLE player_runs (
	run_id INTEGER PRIMARY KEY,
	player_id INTEGER NOT NULL,
	playername TEXT NOT NULL,
	mapid INTEGER NOT NULL,
	fps INTEGER NOT NULL,
	finished_map INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE checkpoint_statistics (
	run_id INTEGER NOT NULL,
	cp_id INTEGER NOT NULL,
	time_played REAL NOT NULL,
	PRIMARY KEY (run_id, cp_id)
);
CREATE TABLE mapids (
	mapid INTEGER PRIMARY KEY,
	mapname TEXT NOT NULL
);
`

// openDatabase opens a fresh SQLite database with the production table
// layout and returns both handles: the raw connection for seeding and
// asserting, and the Store under test.
func openDatabase(t *testing.T) (*sql.DB, *store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db, store.New(db)
}

func exec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func timePlayed(t *testing.T, db *sql.DB, runID, cpID int64) float64 {
	t.Helper()
	var v float64
	err := db.QueryRow(
		"SELECT time_played FROM checkpoint_statistics WHERE run_id = ? AND cp_id = ?",
		runID, cpID).Scan(&v)
	require.NoError(t, err)
	return v
}

// autoConfirm answers yes to everything; integration runs are not
// interactive.
type autoConfirm struct{}

func (autoConfirm) Range() (string, string, error) { return "", "", nil }
func (autoConfirm) RefTime() (string, error)       { return "", nil }
func (autoConfirm) Confirm(string) (bool, error)   { return true, nil }
