package store

import (
	"context"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

var (
	mu   sync.Mutex
	pool *pgxpool.Pool
)

const schema = `
CREATE TABLE IF NOT EXISTS row_classifications (
	cache_key   TEXT PRIMARY KEY,
	entry_id    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	categories  JSONB NOT NULL,
	saved_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id        TEXT PRIMARY KEY,
	company       TEXT NOT NULL,
	analysis_json JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// InitDB initializes the shared connection pool. An empty dbURL falls back
// to the DATABASE_URL environment variable. Once a pool exists later calls
// are no-ops; a failed call leaves no pool behind, so it can be retried.
func InitDB(ctx context.Context, dbURL string) error {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		return nil
	}

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return eris.New("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return eris.Wrap(err, "failed to parse database config")
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return eris.Wrap(err, "failed to create pool")
	}
	pool = p
	return nil
}

// GetPool returns the shared pool, nil before a successful InitDB.
func GetPool() *pgxpool.Pool {
	mu.Lock()
	defer mu.Unlock()
	return pool
}

// EnsureSchema creates the cache and run tables when missing.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return eris.Wrap(err, "failed to create schema")
	}
	return nil
}

// Close closes the shared pool. A later InitDB opens a new one.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}
