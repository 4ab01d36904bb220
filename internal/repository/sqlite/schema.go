package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Times are stored as unix nanoseconds so range predicates compare integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS zones (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		boundary TEXT NOT NULL DEFAULT '{}',
		capacity INTEGER NOT NULL CHECK (capacity >= 1),
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		zone_id INTEGER NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		tag TEXT NOT NULL,
		geometry TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (zone_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		zone_id INTEGER NOT NULL REFERENCES zones(id),
		slot_id TEXT,
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'cancelled', 'expired', 'completed')),
		activated_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		CHECK (window_start < window_end),
		FOREIGN KEY (zone_id, slot_id) REFERENCES slots(zone_id, id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_live_user_zone_uniq
		ON reservations (user_id, zone_id)
		WHERE status IN ('pending', 'active')`,
	`CREATE INDEX IF NOT EXISTS reservations_zone_live_idx
		ON reservations (zone_id, window_start, window_end)
		WHERE status IN ('pending', 'active')`,
	`CREATE INDEX IF NOT EXISTS reservations_live_end_idx
		ON reservations (window_end)
		WHERE status IN ('pending', 'active')`,
	`CREATE INDEX IF NOT EXISTS reservations_user_idx
		ON reservations (user_id, window_end DESC)`,
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema statement %d: %w", i, err)
		}
	}
	return nil
}
