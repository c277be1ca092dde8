package ports

import (
	"context"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// FeatureStore queries a tag-based geospatial feature database.
type FeatureStore interface {
	// Search returns features matching q. Failures wrap domain.ErrSearchUnavailable.
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error)
}

// ReverseGeocoder resolves coordinates to display addresses. It never
// fails outright: failures are reported through domain.Address.Err.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, p domain.GeoPoint) domain.Address
}

// SettingsStore provides the externally managed chat settings.
type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
}
