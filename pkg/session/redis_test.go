package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis test")
	}
	client, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	store.prefix = "hotel:test:" + t.Name() + ":"
	return store
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	data := &Data{
		UserID:    7,
		UserName:  "Ada",
		CSRFToken: "token",
		Flashes:   []Flash{{Kind: FlashSuccess, Message: "Welcome back"}},
	}
	if err := store.Save(ctx, "abc", data, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.UserID != 7 || got.CSRFToken != "token" || len(got.Flashes) != 1 {
		t.Errorf("Load() = %+v", got)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStore_Expires(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "short", &Data{UserID: 1}, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, err := store.Load(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired session, got %v", err)
	}
}
