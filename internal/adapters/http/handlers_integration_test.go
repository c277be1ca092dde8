//go:build integration
// +build integration

package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/samirrijal/nearbyplaces/internal/adapters/http"
	"github.com/samirrijal/nearbyplaces/internal/adapters/nominatim"
	"github.com/samirrijal/nearbyplaces/internal/adapters/overpass"
	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/usecases"
	"github.com/samirrijal/nearbyplaces/internal/pkg/config"
)

// setupLiveDeps wires the handlers to the configured Overpass and Nominatim
// endpoints (the public OSM services by default).
func setupLiveDeps(t *testing.T) *http.Dependencies {
	cfg, err := config.Load("nearby-integration")
	if err != nil {
		t.Fatalf("load config: %v", err)
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
		Rate:      1, // public usage policy
		Burst:     1,
	})
	places := usecases.NewPlaceService(features, geocoder, usecases.PlaceOptions{
		TopK:           cfg.Search.TopK,
		DefaultRadius:  cfg.Search.Radius,
		RequestTimeout: cfg.Search.RequestTimeout(),
	})
	return &http.Dependencies{
		Places: places,
		Chat:   usecases.NewChatService(places, nil),
	}
}

// TestNearbyPlaces_Integration searches cafes around Plaza Moyúa, Bilbao.
func TestNearbyPlaces_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupApp(setupLiveDeps(t))

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=43.2630&lon=-2.9350&q=find+nearest+cafe&radius=800", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode == 502 {
		t.Skip("overpass unavailable")
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result searchJSON
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if result.Query.Keyword != "cafe" {
		t.Errorf("expected keyword cafe, got %q", result.Query.Keyword)
	}
	if len(result.Places) == 0 {
		t.Fatal("expected at least one cafe in central Bilbao")
	}
	if len(result.Places) > usecases.DefaultTopK {
		t.Errorf("expected at most %d places, got %d", usecases.DefaultTopK, len(result.Places))
	}
	for i := 1; i < len(result.Places); i++ {
		if result.Places[i].Distance < result.Places[i-1].Distance {
			t.Errorf("places not ordered by distance at %d", i)
		}
	}
	for _, p := range result.Places {
		if p.Address == "" {
			t.Errorf("place %s has empty address", p.Name)
		}
	}
}

// TestChat_Integration runs a full chat turn against the live services.
func TestChat_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupApp(setupLiveDeps(t))

	status, reply := postChat(t, app, `{"text":"find nearest pharmacy","location":{"lat":43.2630,"lon":-2.9350}}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	switch reply.Kind {
	case domain.ReplyResults:
		if reply.Text == "" {
			t.Error("expected reply text")
		}
	case domain.ReplyError:
		t.Skip("overpass unavailable")
	default:
		t.Errorf("unexpected reply kind %q", reply.Kind)
	}
}
