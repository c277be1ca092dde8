package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/nearbyplaces/internal/adapters/http"
	natsadapter "github.com/samirrijal/nearbyplaces/internal/adapters/nats"
	"github.com/samirrijal/nearbyplaces/internal/adapters/nominatim"
	"github.com/samirrijal/nearbyplaces/internal/adapters/overpass"
	"github.com/samirrijal/nearbyplaces/internal/adapters/valkey"
	"github.com/samirrijal/nearbyplaces/internal/core/ports"
	"github.com/samirrijal/nearbyplaces/internal/core/usecases"
	"github.com/samirrijal/nearbyplaces/internal/pkg/config"
	"github.com/samirrijal/nearbyplaces/internal/pkg/logging"
	"github.com/samirrijal/nearbyplaces/internal/pkg/telemetry"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load("nearby-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging (LOG_LEVEL, LOG_FORMAT)
	logging.SetupFromEnv(cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Upstream OSM services
	features := overpass.NewClient(overpass.Options{
		URL:          cfg.Overpass.URL,
		Timeout:      cfg.Overpass.Timeout(),
		QueryTimeout: cfg.Overpass.QueryTimeout,
	})
	geocoder := nominatim.NewClient(nominatim.Options{
		URL:       cfg.Nominatim.URL,
		UserAgent: cfg.Nominatim.UserAgent,
		Timeout:   cfg.Nominatim.Timeout(),
		Rate:      cfg.Nominatim.RatePerSecond,
		Burst:     cfg.Nominatim.Burst,
	})

	// Settings: Valkey hash when enabled, otherwise the configured values
	var settings ports.SettingsStore = usecases.StaticSettings(cfg.Search.Settings())
	var settingsStore *valkey.SettingsStore
	if cfg.Valkey.Enabled {
		settingsStore, err = valkey.New(cfg.Valkey.Addr, cfg.Valkey.SettingsKey, cfg.Search.Settings())
		if err != nil {
			slog.Warn("valkey unavailable, using static settings", "error", err)
		} else {
			defer settingsStore.Close()
			settings = settingsStore
		}
	}

	// NATS (readiness only; the chat bridge runs in cmd/chatbridge)
	var natsConn *nats.Conn
	if nc, err := natsadapter.Connect(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		natsConn = nc
		defer nc.Close()
	}

	// Use cases
	placeSvc := usecases.NewPlaceService(features, geocoder, usecases.PlaceOptions{
		TopK:           cfg.Search.TopK,
		DefaultRadius:  cfg.Search.Radius,
		RequestTimeout: cfg.Search.RequestTimeout(),
	})
	chatSvc := usecases.NewChatService(placeSvc, settings)

	deps := &http.Dependencies{
		Places:  placeSvc,
		Chat:    chatSvc,
		NATS:    natsConn,
		Timeout: cfg.Search.RequestTimeout() + 15*time.Second,
	}
	if settingsStore != nil {
		deps.Settings = settingsStore
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Nearby Places API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// In-flight searches may be waiting on Overpass; give them time to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Search.RequestTimeout())
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
