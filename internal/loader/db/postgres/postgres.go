// Package postgres reads crash records out of PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"crashprep/internal/loader/db"
	"crashprep/internal/table"
)

func init() {
	db.Register("postgres", New)
}

// Source runs one query against a Postgres pool.
type Source struct {
	pool *pgxpool.Pool
	cfg  db.Config
}

// New opens a connection pool for cfg.DSN.
func New(ctx context.Context, cfg db.Config) (db.Source, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Source{pool: pool, cfg: cfg}, nil
}

// Close closes the connection pool.
func (s *Source) Close() { s.pool.Close() }

// Load runs the configured query and reads the full result set.
//
// pgx decodes cells to Go scalars, so typing follows table.FromAny: SQL NULL
// becomes a missing cell, numeric types become numbers, text and timestamps
// become text.
func (s *Source) Load(ctx context.Context) (*table.Table, error) {
	rows, err := s.pool.Query(ctx, s.cfg.Query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	tab, err := table.New(db.ColumnNames(cols))
	if err != nil {
		return nil, fmt.Errorf("postgres: result columns: %w", err)
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: read row %d: %w", tab.NumRows()+1, err)
		}
		cells := make([]table.Value, len(vals))
		for i, v := range vals {
			cells[i] = table.FromAny(v)
		}
		if err := tab.AppendRow(cells...); err != nil {
			return nil, err
		}
		if s.cfg.MaxRows > 0 && tab.NumRows() >= s.cfg.MaxRows {
			return tab, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return tab, nil
}
