package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

func TestGraphQL_PlacesNearby(t *testing.T) {
	store := &mockFeatureStore{
		searchFn: func(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error) {
			if q.Keyword != "fuel" {
				t.Errorf("expected keyword fuel, got %q", q.Keyword)
			}
			if q.RadiusMeters != 2000 {
				t.Errorf("expected radius 2000, got %v", q.RadiusMeters)
			}
			return []domain.Feature{
				{ID: 1, Type: "node", Tags: map[string]string{"name": "Repsol", "amenity": "fuel"}, Location: origin},
			}, nil
		},
	}
	app := setupApp(makeDeps(store, nil))

	body := `{"query":"{ placesNearby(lat: 43.263, lon: -2.935, q: \"find nearest gas station\", radius: 2000) { name category distance address location { lat lon } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			PlacesNearby []struct {
				Name     string  `json:"name"`
				Category string  `json:"category"`
				Distance float64 `json:"distance"`
				Address  string  `json:"address"`
				Location struct {
					Lat float64 `json:"lat"`
				} `json:"location"`
			} `json:"placesNearby"`
		} `json:"data"`
		Errors []map[string]interface{} `json:"errors"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Data.PlacesNearby) != 1 {
		t.Fatalf("expected 1 place, got %d", len(result.Data.PlacesNearby))
	}
	p := result.Data.PlacesNearby[0]
	if p.Name != "Repsol" || p.Category != "fuel" {
		t.Errorf("unexpected place %+v", p)
	}
	if p.Distance != 0 {
		t.Errorf("expected distance 0, got %v", p.Distance)
	}
	if p.Address != "1 Test Street" {
		t.Errorf("unexpected address %q", p.Address)
	}
	if p.Location.Lat != origin.Lat {
		t.Errorf("unexpected lat %v", p.Location.Lat)
	}
}

func TestGraphQL_ChatWithoutLocation(t *testing.T) {
	app := setupApp(makeDeps(nil, nil))

	body := `{"query":"{ chat(text: \"find a pharmacy\") { kind text } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Chat struct {
				Kind string `json:"kind"`
				Text string `json:"text"`
			} `json:"chat"`
		} `json:"data"`
	}
	json.Unmarshal(readBody(t, resp.Body), &result)
	if result.Data.Chat.Kind != string(domain.ReplyRequestLocation) {
		t.Errorf("expected request_location, got %q", result.Data.Chat.Kind)
	}
}

func TestGraphQL_SearchErrorReported(t *testing.T) {
	app := setupApp(makeDeps(nil, nil))

	body := `{"query":"{ placesNearby(lat: 120, lon: 0, q: \"cafe\") { name } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	json.Unmarshal(readBody(t, resp.Body), &result)
	if len(result.Errors) == 0 {
		t.Fatal("expected a GraphQL error for invalid latitude")
	}
	if !strings.Contains(result.Errors[0].Message, "location is invalid") {
		t.Errorf("unexpected error message %q", result.Errors[0].Message)
	}
}

func TestGraphQL_RadiusOverLimit(t *testing.T) {
	queried := false
	store := &mockFeatureStore{
		searchFn: func(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error) {
			queried = true
			return nil, nil
		},
	}
	app := setupApp(makeDeps(store, nil))

	body := `{"query":"{ placesNearby(lat: 43.26, lon: -2.93, q: \"cafe\", radius: 100000.0) { name } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	json.Unmarshal(readBody(t, resp.Body), &result)
	if len(result.Errors) == 0 {
		t.Fatal("expected a GraphQL error for a radius over the limit")
	}
	if !strings.Contains(result.Errors[0].Message, "radius is invalid") {
		t.Errorf("unexpected error message %q", result.Errors[0].Message)
	}
	if queried {
		t.Error("feature store must not be queried for an oversized radius")
	}
}
