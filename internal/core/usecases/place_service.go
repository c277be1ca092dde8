package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/nearbyplaces/internal/core/amenity"
	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/ports"
	"github.com/samirrijal/nearbyplaces/internal/pkg/logging"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
	"github.com/samirrijal/nearbyplaces/internal/pkg/telemetry"
)

// PlaceOptions tunes the search pipeline.
type PlaceOptions struct {
	TopK           int
	DefaultRadius  float64
	RequestTimeout time.Duration
}

// PlaceService runs proximity searches: normalize, query, rank, enrich.
type PlaceService struct {
	features ports.FeatureStore
	geocoder ports.ReverseGeocoder
	opts     PlaceOptions
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(features ports.FeatureStore, geocoder ports.ReverseGeocoder, opts PlaceOptions) *PlaceService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = domain.DefaultSearchRadius
	}
	return &PlaceService{features: features, geocoder: geocoder, opts: opts}
}

// Search finds the places matching text closest to origin. A nil origin
// yields domain.ErrMissingLocation; a failed feature query yields
// domain.ErrSearchUnavailable and no places. Geocoding failures never fail
// the search.
func (s *PlaceService) Search(ctx context.Context, origin *domain.GeoPoint, text string, radius float64) (*domain.SearchResult, error) {
	if origin == nil {
		return nil, domain.ErrMissingLocation
	}
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidLocation, err)
	}
	if err := domain.ValidateRadius(radius); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRadius, err)
	}
	if radius == 0 {
		radius = s.opts.DefaultRadius
	}
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	q := domain.SearchQuery{
		Origin:       *origin,
		Keyword:      amenity.Normalize(text),
		RadiusMeters: radius,
	}
	id := uuid.NewString()
	logger := logging.FromContext(ctx).With("search_id", id, "keyword", q.Keyword, "radius", q.RadiusMeters)

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSearch)
	defer span.End()
	span.SetAttributes(
		attribute.String("search.keyword", q.Keyword),
		attribute.Float64("search.radius", q.RadiusMeters),
	)

	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	features, err := s.searchFeatures(ctx, q)
	if err != nil {
		metrics.Searches.WithLabelValues("unavailable").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "feature search failed")
		logger.ErrorContext(ctx, "feature search failed", "error", err)
		return nil, err
	}

	places := Rank(features, q.Origin, s.opts.TopK)
	s.enrich(ctx, places)

	metrics.Searches.WithLabelValues("ok").Inc()
	metrics.SearchResults.Observe(float64(len(places)))
	logger.InfoContext(ctx, "nearby search", "features", len(features), "results", len(places))

	return &domain.SearchResult{ID: id, Query: q, Places: places}, nil
}

func (s *PlaceService) searchFeatures(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFeatureSearch)
	defer span.End()

	features, err := s.features.Search(ctx, q)
	if err != nil {
		if !errors.Is(err, domain.ErrSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.features", len(features)))
	return features, nil
}

// enrich resolves addresses for all places concurrently. If ctx ends
// first, places still waiting on a lookup get the unavailable address and
// late results are dropped.
func (s *PlaceService) enrich(ctx context.Context, places []domain.Place) {
	if len(places) == 0 {
		return
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanEnrich)
	defer span.End()

	var (
		mu        sync.Mutex
		resolved  = make([]bool, len(places))
		abandoned bool
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(len(places))
		for i := range places {
			i := i // per-iteration copy; go.mod targets go1.21 loop semantics
			loc := places[i].Location
			g.Go(func() error {
				addr := s.geocoder.Reverse(ctx, loc)
				mu.Lock()
				defer mu.Unlock()
				if !abandoned {
					places[i].Address = addr
					resolved[i] = true
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		mu.Lock()
		abandoned = true
		for i := range places {
			if !resolved[i] {
				places[i].Address = domain.UnavailableAddress(ctx.Err())
			}
		}
		mu.Unlock()
		logging.FromContext(ctx).WarnContext(ctx, "address enrichment abandoned", "error", ctx.Err())
	}
}

// Reply answers a chat utterance with a location prompt, a results list or
// the configured error message.
func (s *PlaceService) Reply(ctx context.Context, req domain.ChatRequest, settings domain.Settings) domain.ChatReply {
	settings = settings.WithDefaults()

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanReply)
	defer span.End()

	result, err := s.Search(ctx, req.Location, req.Text, settings.SearchRadius)
	switch {
	case errors.Is(err, domain.ErrMissingLocation):
		return domain.ChatReply{Kind: domain.ReplyRequestLocation, Text: settings.RequestLocationMessage}
	case err != nil:
		return domain.ChatReply{Kind: domain.ReplyError, Text: settings.ErrorMessage}
	}
	return domain.ChatReply{Kind: domain.ReplyResults, Text: FormatPlaces(result.Places)}
}
