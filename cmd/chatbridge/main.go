package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

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

// chatbridge answers chat requests published on NATS with the same replies
// as POST /v1/chat.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("nearby-chatbridge")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging (LOG_LEVEL, LOG_FORMAT)
	logging.SetupFromEnv(cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

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

	var settings ports.SettingsStore = usecases.StaticSettings(cfg.Search.Settings())
	if cfg.Valkey.Enabled {
		store, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.SettingsKey, cfg.Search.Settings())
		if err != nil {
			slog.Warn("valkey unavailable, using static settings", "error", err)
		} else {
			defer store.Close()
			settings = store
		}
	}

	placeSvc := usecases.NewPlaceService(features, geocoder, usecases.PlaceOptions{
		TopK:           cfg.Search.TopK,
		DefaultRadius:  cfg.Search.Radius,
		RequestTimeout: cfg.Search.RequestTimeout(),
	})
	chatSvc := usecases.NewChatService(placeSvc, settings)

	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}

	responder := natsadapter.NewResponder(nc, chatSvc, cfg.Search.RequestTimeout())
	responder.TriggersOnly = cfg.NATS.TriggersOnly
	responder.Workers = cfg.NATS.Workers
	if err := responder.Start(ctx, cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
		log.Fatalf("start responder: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining subscription...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Search.RequestTimeout()+5*time.Second)
	defer shutdownCancel()
	if err := responder.Close(shutdownCtx); err != nil {
		slog.Error("chat responder shutdown incomplete", "error", err)
		return
	}
	slog.Info("chat responder stopped")
}
