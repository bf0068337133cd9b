// Package sqlite reads crash records out of SQLite files.
//
// The modernc.org/sqlite driver is pure Go, so a .db file or an in-memory
// database works without cgo. DSNs are either plain file paths or file: URIs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"crashprep/internal/loader/db"
	"crashprep/internal/table"
)

func init() {
	db.Register("sqlite", New)
}

// Source runs one query against a SQLite database.
type Source struct {
	conn *sql.DB
	cfg  db.Config
}

// New opens cfg.DSN and verifies connectivity.
func New(ctx context.Context, cfg db.Config) (db.Source, error) {
	conn, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Source{conn: conn, cfg: cfg}, nil
}

// Close closes the database handle.
func (s *Source) Close() { _ = s.conn.Close() }

// Load runs the configured query and reads the full result set.
func (s *Source) Load(ctx context.Context) (*table.Table, error) {
	return db.QueryTable(ctx, s.conn, s.cfg.Query, s.cfg.MaxRows)
}
