package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatal(err)
	}
	return db
}

func count(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(ctx context.Context) error {
		_, err := db.Conn(ctx).ExecContext(ctx, `INSERT INTO items (name) VALUES ('towel')`)
		return err
	})
	if err != nil {
		t.Fatalf("commit path: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.Conn(ctx).ExecContext(ctx, `INSERT INTO items (name) VALUES ('robe')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	if n := count(t, db); n != 1 {
		t.Errorf("rows = %d, want 1 after rollback", n)
	}
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(ctx context.Context) error {
		if err := db.WithTx(ctx, func(ctx context.Context) error {
			_, err := db.Conn(ctx).ExecContext(ctx, `INSERT INTO items (name) VALUES ('soap')`)
			return err
		}); err != nil {
			return err
		}
		return errors.New("abort outer")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := count(t, db); n != 0 {
		t.Errorf("inner write must roll back with the outer transaction, rows = %d", n)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `INSERT INTO items (name) VALUES ('pillow')`); err != nil {
		t.Fatal(err)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO items (name) VALUES ('pillow')`)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Error("plain errors are not unique violations")
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	got, err := ParseDate(FormatDate(d))
	if err != nil || !got.Equal(d) {
		t.Errorf("ParseDate(FormatDate) = %v, %v", got, err)
	}
	if FormatDate(d) >= FormatDate(d.AddDate(0, 0, 1)) {
		t.Error("stored dates must sort lexically")
	}
	if _, err := ParseDate("06/05/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
