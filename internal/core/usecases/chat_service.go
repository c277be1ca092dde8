package usecases

import (
	"context"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/ports"
	"github.com/samirrijal/nearbyplaces/internal/pkg/logging"
)

// ChatService answers chat utterances using settings from a SettingsStore.
type ChatService struct {
	places   *PlaceService
	settings ports.SettingsStore
}

// NewChatService creates a ChatService. A nil store uses built-in settings.
func NewChatService(places *PlaceService, settings ports.SettingsStore) *ChatService {
	if settings == nil {
		settings = StaticSettings(domain.DefaultSettings())
	}
	return &ChatService{places: places, settings: settings}
}

// Handle loads current settings and replies to req. Settings errors fall
// back to the built-in defaults.
func (s *ChatService) Handle(ctx context.Context, req domain.ChatRequest) domain.ChatReply {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "settings unavailable, using defaults", "error", err)
		settings = domain.DefaultSettings()
	}
	return s.places.Reply(ctx, req, settings)
}

// StaticSettings is a SettingsStore that always returns the same settings.
type StaticSettings domain.Settings

func (s StaticSettings) GetSettings(context.Context) (domain.Settings, error) {
	return domain.Settings(s).WithDefaults(), nil
}
