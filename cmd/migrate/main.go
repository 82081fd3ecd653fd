package main

import (
	"context"
	"time"

	"hotelbooking/internal/server"
	"hotelbooking/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Log.Info("Starting migration job", "driver", cfg.StoreDriver)

	backend, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to open store", "error", err)
	}

	if err := backend.Migrate(ctx); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	srv, err := server.New(cfg, backend, server.Options{})
	if err != nil {
		cfg.Log.Fatal("Failed to wire application", "error", err)
	}
	defer func() {
		if err := srv.Close(context.Background()); err != nil {
			cfg.Log.Error("Failed to release resources", "error", err)
		}
	}()

	report, err := srv.Seed(ctx)
	if err != nil {
		cfg.Log.Fatal("Seeding failed", "error", err)
	}

	cfg.Log.Info("Migration completed successfully",
		"room_types_created", report.RoomTypes,
		"rooms_created", report.Rooms,
		"admin_created", report.AdminCreated,
	)
}
