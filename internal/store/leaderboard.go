// Package store persists the permanent retirement leaderboard in a SQL
// database, per spec.md §4.7.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"strayfinder/internal/apperr"
)

// DefaultMaxItems is both the default and the maximum page size for
// GetPlayersScore.
const DefaultMaxItems = 100

// Record is one row of the retirement leaderboard.
type Record struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	PlayTimeMs int64  `json:"playTimeMs"`
}

// Leaderboard is the append-only retirement store.
type Leaderboard struct {
	db *sql.DB
}

// New wraps an already-migrated database connection.
func New(db *sql.DB) *Leaderboard {
	return &Leaderboard{db: db}
}

// AddPlayerScore appends one retirement record under a fresh UUID.
func (l *Leaderboard) AddPlayerScore(ctx context.Context, name string, score int, playTimeMs int64) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO retired_players (id, name, score, play_time_ms)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), name, score, playTimeMs)
	if err != nil {
		return apperr.NewDatabase("inserting retirement record", err)
	}
	return nil
}

// GetPlayersScore returns up to limit rows starting at offset, ordered by
// (score DESC, play_time_ms ASC, name ASC). limit is capped at
// DefaultMaxItems and a limit of 0 returns no rows; defaults for absent
// query parameters are applied by the API handler, not here.
func (l *Leaderboard) GetPlayersScore(ctx context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 {
		return nil, apperr.NewValidation(apperr.InvalidStart, "start must be >= 0")
	}
	if limit < 0 || limit > DefaultMaxItems {
		return nil, apperr.NewValidation(apperr.InvalidMaxItems, fmt.Sprintf("maxItems must be in [0,%d]", DefaultMaxItems))
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, score, play_time_ms
		FROM retired_players
		ORDER BY score DESC, play_time_ms ASC, name ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, apperr.NewDatabase("querying leaderboard", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Score, &r.PlayTimeMs); err != nil {
			return nil, apperr.NewDatabase("scanning leaderboard row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewDatabase("iterating leaderboard rows", err)
	}
	return out, nil
}
