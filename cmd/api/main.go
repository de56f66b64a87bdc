package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/iotcloud/device-events-service/internal/config"
	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/httpserver"
	"github.com/iotcloud/device-events-service/internal/logger"
)

// main boots the service: config → logger → store → schema → HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "device-events-service")
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	// One store client per process, shared across concurrent requests.
	client, err := docstore.NewClient(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("document store unreachable", zap.Error(err))
	}
	defer client.Close()

	// Self-bootstrap the collection so a fresh database just works.
	if err := client.EnsureSchema(context.Background()); err != nil {
		zl.Fatal("schema bootstrap failed", zap.Error(err))
	}

	store := docstore.NewEventStore(client)
	router := httpserver.NewRouter(cfg, client, store, zl)

	zl.Info("server started", zap.String("addr", cfg.HTTPAddr))
	if err := router.Run(cfg.HTTPAddr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
