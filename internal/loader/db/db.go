// Package db loads crash records from SQL databases.
//
// Backends register themselves under a kind ("postgres", "sqlite", "mssql")
// from an init function; importing crashprep/internal/loader/db/all pulls in
// every backend this repository ships. A Source runs one configured query and
// returns the result set as a table, so the rest of the pipeline never sees a
// connection handle.
package db

import (
	"context"
	"fmt"
	"sync"

	"crashprep/internal/config"
	"crashprep/internal/table"
)

// Config is the minimal configuration needed to open a database source.
//
// Kind must match a registered backend kind. DSN and Query are passed through
// to the backend; DSN syntax is backend-specific. MaxRows, when positive,
// caps how many result rows are read.
type Config struct {
	Kind    string
	DSN     string
	Query   string
	MaxRows int
}

// Source is an open database handle bound to one query.
type Source interface {
	// Load runs the configured query and reads the full result set.
	Load(ctx context.Context) (*table.Table, error)

	// Close releases the connection. Call once, after the last Load.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Source, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a database backend under a kind. Call it from an init
// function in the backend package. Registering an empty kind, a nil factory,
// or the same kind twice panics so a wiring mistake fails at startup rather
// than selecting an ambiguous backend.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("db: Register called with empty kind")
	}
	if f == nil {
		panic("db: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("db: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Open constructs a Source using the registered backend factory.
//
// Safe for concurrent use with Register; Open takes a read lock while
// selecting the factory. Returns an error when cfg.Kind is empty or not
// registered, and whatever error the factory returns otherwise.
func Open(ctx context.Context, cfg Config) (Source, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("db: missing source kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("db: unsupported source kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Load opens the backend for kind, runs the configured query, and closes the
// connection again. It is the one-shot entry point the pipeline uses for
// database sources.
//
// Options:
//
//	dsn      string  connection string, backend-specific (required)
//	query    string  SQL to run (required)
//	max_rows int     cap on result rows, 0 means unlimited
func Load(ctx context.Context, kind string, opt config.Options) (*table.Table, error) {
	cfg := Config{
		Kind:    kind,
		DSN:     opt.String("dsn", ""),
		Query:   opt.String("query", ""),
		MaxRows: opt.Int("max_rows", 0),
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db: %s source needs a dsn", kind)
	}
	if cfg.Query == "" {
		return nil, fmt.Errorf("db: %s source needs a query", kind)
	}

	src, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Load(ctx)
}
