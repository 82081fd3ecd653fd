package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/logger"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db, logger.Discard()); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(migrations) {
		t.Errorf("schema_migrations rows = %d, want %d", n, len(migrations))
	}

	for _, table := range []string{"room_types", "rooms", "room_images", "users", "admins", "bookings"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_BookingDateCheck(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := Migrate(ctx, db, logger.Discard()); err != nil {
		t.Fatal(err)
	}

	stmts := []string{
		`INSERT INTO room_types (name, base_price, max_occupancy, created_at, updated_at) VALUES ('Std', 100, 2, 'x', 'x')`,
		`INSERT INTO rooms (room_type_id, room_number, created_at, updated_at) VALUES (1, '101', 'x', 'x')`,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES ('A', 'a@example.com', 'h', 'x', 'x')`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}

	_, err = db.ExecContext(ctx, `INSERT INTO bookings (reference, room_id, user_id, guest_name, guest_email, check_in, check_out, guests, total_price, status, created_at, updated_at)
		VALUES ('HB-1', 1, 1, 'A', 'a@example.com', '2025-06-05', '2025-06-05', 1, 0, 'pending', 'x', 'x')`)
	if err == nil {
		t.Error("zero-night booking must violate the date check")
	}

	_, err = db.ExecContext(ctx, `INSERT INTO bookings (reference, room_id, user_id, guest_name, guest_email, check_in, check_out, guests, total_price, status, created_at, updated_at)
		VALUES ('HB-2', 99, 1, 'A', 'a@example.com', '2025-06-01', '2025-06-05', 1, 0, 'pending', 'x', 'x')`)
	if !sqlite.IsForeignKeyViolation(err) {
		t.Errorf("unknown room must violate the foreign key, got %v", err)
	}
}
