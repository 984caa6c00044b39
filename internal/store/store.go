// Package store implements the relational access layer for the runfixer
// tool. All reads and writes go through a Store bound to one database
// connection; the connection is a scoped resource acquired at startup and
// released on every exit path.
//
// Production connects to MySQL via go-sql-driver. Every query uses ?
// placeholders and portable SQL so tests can run the same Store against a
// throwaway SQLite database through the identical database/sql API.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// verifyTolerance bounds the float drift accepted when re-reading a value
// just written. Anything larger indicates truncation or rounding by the
// storage engine and aborts the transaction.
const verifyTolerance = 1e-6

// Store provides the checkpoint, run, and statistic queries the engine
// drives against one open database connection.
type Store struct {
	db   *sql.DB
	user string
	name string
}

// Open connects to the MySQL database reachable at addr using the given
// credentials. addr is either the configured database address or the local
// end of an SSH tunnel.
func Open(cfg types.DatabaseConfig, addr string) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", cfg.User, cfg.Password, addr, cfg.Name)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w: %v", types.ErrConnectivity, err)
	}
	return &Store{db: db, user: cfg.User, name: cfg.Name}, nil
}

// New wraps an already-open connection. Tests use this to run the Store
// against SQLite.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database connection. Safe to call on all exit paths.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive before any work starts.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w: %v", types.ErrConnectivity, err)
	}
	return nil
}

// HasUpdatePrivilege reports whether the connected user holds UPDATE rights
// on the statistics table, probing the MySQL information_schema at user,
// schema, and table granularity. A non-nil error means the privilege could
// not be determined; callers should warn and proceed rather than abort.
func (s *Store) HasUpdatePrivilege(ctx context.Context) (bool, error) {
	const query = `
		SELECT privilege_type FROM information_schema.user_privileges
		WHERE grantee LIKE ? AND privilege_type IN ('UPDATE', 'ALL PRIVILEGES')
		UNION
		SELECT privilege_type FROM information_schema.schema_privileges
		WHERE table_schema = ? AND grantee LIKE ?
		  AND privilege_type IN ('UPDATE', 'ALL PRIVILEGES')
		UNION
		SELECT privilege_type FROM information_schema.table_privileges
		WHERE table_schema = ? AND table_name = 'checkpoint_statistics'
		  AND grantee LIKE ?
		  AND privilege_type IN ('UPDATE', 'ALL PRIVILEGES')`

	pattern := fmt.Sprintf("'%s'%%", s.user)
	rows, err := s.db.QueryContext(ctx, query, pattern, s.name, pattern, s.name, pattern)
	if err != nil {
		return true, fmt.Errorf("query privileges: %v", err)
	}
	defer rows.Close()

	granted := false
	for rows.Next() {
		var privilege string
		if err := rows.Scan(&privilege); err != nil {
			return true, fmt.Errorf("scan privileges: %v", err)
		}
		granted = true
	}
	if err := rows.Err(); err != nil {
		return true, fmt.Errorf("read privileges: %v", err)
	}
	return granted, nil
}
