package sqlite

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/logger"
)

type migration struct {
	version     int
	description string
	statements  []string
}

// Dates are TEXT (YYYY-MM-DD), timestamps RFC 3339 TEXT, money INTEGER cents.
var migrations = []migration{
	{
		version:     1,
		description: "catalog, accounts and bookings",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS room_types (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				name          TEXT    NOT NULL UNIQUE COLLATE NOCASE,
				description   TEXT    NOT NULL DEFAULT '',
				base_price    INTEGER NOT NULL CHECK (base_price >= 0),
				max_occupancy INTEGER NOT NULL CHECK (max_occupancy > 0),
				amenities     TEXT    NOT NULL DEFAULT '[]',
				created_at    TEXT    NOT NULL,
				updated_at    TEXT    NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS rooms (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				room_type_id    INTEGER NOT NULL REFERENCES room_types(id) ON DELETE RESTRICT,
				room_number     TEXT    NOT NULL UNIQUE COLLATE NOCASE,
				floor           INTEGER NOT NULL DEFAULT 0,
				price_per_night INTEGER NOT NULL DEFAULT 0 CHECK (price_per_night >= 0),
				status          TEXT    NOT NULL DEFAULT 'available'
				                CHECK (status IN ('available', 'occupied', 'maintenance')),
				description     TEXT    NOT NULL DEFAULT '',
				featured        INTEGER NOT NULL DEFAULT 0,
				created_at      TEXT    NOT NULL,
				updated_at      TEXT    NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_rooms_type ON rooms(room_type_id)`,
			`CREATE TABLE IF NOT EXISTS room_images (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				room_id    INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
				path       TEXT    NOT NULL,
				caption    TEXT    NOT NULL DEFAULT '',
				is_primary INTEGER NOT NULL DEFAULT 0,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TEXT    NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_room_images_room ON room_images(room_id, sort_order)`,
			`CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				name          TEXT NOT NULL,
				email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
				phone         TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS admins (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
				email         TEXT NOT NULL,
				name          TEXT NOT NULL,
				role          TEXT NOT NULL CHECK (role IN ('staff', 'manager')),
				password_hash TEXT NOT NULL,
				last_login_at TEXT,
				created_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS bookings (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				reference        TEXT    NOT NULL UNIQUE,
				room_id          INTEGER NOT NULL REFERENCES rooms(id) ON DELETE RESTRICT,
				user_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				guest_name       TEXT    NOT NULL,
				guest_email      TEXT    NOT NULL,
				guest_phone      TEXT    NOT NULL DEFAULT '',
				check_in         TEXT    NOT NULL,
				check_out        TEXT    NOT NULL,
				guests           INTEGER NOT NULL CHECK (guests > 0),
				total_price      INTEGER NOT NULL CHECK (total_price >= 0),
				status           TEXT    NOT NULL
				                 CHECK (status IN ('pending', 'confirmed', 'cancelled', 'rejected')),
				special_requests TEXT    NOT NULL DEFAULT '',
				created_at       TEXT    NOT NULL,
				updated_at       TEXT    NOT NULL,
				CHECK (check_out > check_in)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_room_dates ON bookings(room_id, status, check_in, check_out)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status, created_at)`,
		},
	},
}

// Migrate applies pending migrations in order, each in its own transaction.
func Migrate(ctx context.Context, db *sqlite.DB, log *logger.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.WithTx(ctx, func(ctx context.Context) error {
			conn := db.Conn(ctx)
			for _, stmt := range m.statements {
				if _, err := conn.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d: %w", m.version, err)
				}
			}
			_, err := conn.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				m.version, sqlite.FormatTime(time.Now()))
			return err
		})
		if err != nil {
			return err
		}
		log.Info("Applied SQLite migration", "version", m.version, "description", m.description)
	}
	return nil
}
