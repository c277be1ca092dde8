package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/usecases"
)

// SettingsBackend is a writable settings store, e.g. valkey.SettingsStore.
type SettingsBackend interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	PutSettings(ctx context.Context, settings domain.Settings) error
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places   *usecases.PlaceService
	Chat     *usecases.ChatService
	Settings SettingsBackend // nil when settings are static
	NATS     *nats.Conn
	// Timeout bounds each API request. Zero means DefaultRequestTimeout.
	Timeout time.Duration
}

// DefaultRequestTimeout leaves headroom over the search pipeline's own timeout.
const DefaultRequestTimeout = 45 * time.Second

func (d *Dependencies) requestTimeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultRequestTimeout
}
