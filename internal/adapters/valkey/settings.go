package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// DefaultSettingsKey is the hash holding the chat settings.
const DefaultSettingsKey = "nearby:settings"

// Hash fields of the settings key.
const (
	fieldRequestLocationMessage = "request_location_message"
	fieldErrorMessage           = "error_message"
	fieldSearchRadius           = "search_radius"
)

// SettingsStore implements ports.SettingsStore using a Valkey hash.
type SettingsStore struct {
	client   valkey.Client
	key      string
	fallback domain.Settings
}

// New creates a new Valkey settings store. Fields missing from the hash
// are taken from fallback.
func New(addr, key string, fallback domain.Settings) (*SettingsStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if key == "" {
		key = DefaultSettingsKey
	}
	return &SettingsStore{client: client, key: key, fallback: fallback.WithDefaults()}, nil
}

// GetSettings reads the settings hash.
func (s *SettingsStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.key).Build()).AsStrMap()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read settings %s: %w", s.key, err)
	}
	return settingsFromHash(fields, s.fallback), nil
}

// PutSettings writes all settings fields.
func (s *SettingsStore) PutSettings(ctx context.Context, settings domain.Settings) error {
	cmd := s.client.B().Hset().Key(s.key).FieldValue().
		FieldValue(fieldRequestLocationMessage, settings.RequestLocationMessage).
		FieldValue(fieldErrorMessage, settings.ErrorMessage).
		FieldValue(fieldSearchRadius, strconv.FormatFloat(settings.SearchRadius, 'f', -1, 64)).
		Build()
	return s.client.Do(ctx, cmd).Error()
}

// Ping checks connectivity.
func (s *SettingsStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (s *SettingsStore) Close() {
	s.client.Close()
}

func settingsFromHash(fields map[string]string, fallback domain.Settings) domain.Settings {
	settings := fallback
	if v := fields[fieldRequestLocationMessage]; v != "" {
		settings.RequestLocationMessage = v
	}
	if v := fields[fieldErrorMessage]; v != "" {
		settings.ErrorMessage = v
	}
	if v, err := strconv.ParseFloat(fields[fieldSearchRadius], 64); err == nil && v > 0 {
		settings.SearchRadius = v
	}
	return settings.WithDefaults()
}
