package main

import (
	"context"

	"hotelbooking/internal/server"
	"hotelbooking/pkg/app"
	"hotelbooking/pkg/config"
)

const ServiceName = "hotel"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting hotel website")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout+cfg.ShutdownTimeout)
	backend, err := server.OpenBackend(ctx, cfg)
	cancel()
	if err != nil {
		cfg.Log.Fatal("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}

	srv, err := server.New(cfg, backend, server.Options{})
	if err != nil {
		_ = backend.Close(context.Background())
		cfg.Log.Fatal("Failed to wire application", "error", err)
	}

	application := app.NewApplication(cfg)
	application.SetApp(srv)
	application.Run()
}
