package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Open opens the retirement leaderboard's libSQL/SQLite connection and
// configures it for concurrent access from the strand and the API's
// read-only record queries: WAL journaling, a busy timeout instead of
// SQLITE_BUSY, and foreign keys on.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening leaderboard database: %w", err)
	}

	// Some PRAGMAs (journal_mode) return a row, others (foreign_keys) don't;
	// QueryContext handles both uniformly where Exec would reject the first.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging leaderboard database: %w", err)
	}

	return db, nil
}
