package nominatim_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/nearbyplaces/internal/adapters/nominatim"
	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

var philly = domain.GeoPoint{Lat: 40.0007, Lon: -75.0}

func TestReverse_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "40.0007", r.URL.Query().Get("lat"))
		assert.Equal(t, "-75", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"display_name":"1 Main St, Philadelphia, PA"}`)
	}))
	defer srv.Close()

	c := nominatim.NewClient(nominatim.Options{URL: srv.URL, UserAgent: "test-agent/1.0"})
	addr := c.Reverse(context.Background(), philly)
	require.True(t, addr.Available())
	assert.Equal(t, "1 Main St, Philadelphia, PA", addr.String())
}

func TestReverse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"malformed payload", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "{not json")
		}},
		{"service error", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"error":"Unable to geocode"}`)
		}},
		{"missing display name", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			addr := nominatim.NewClient(nominatim.Options{URL: srv.URL}).Reverse(context.Background(), philly)
			assert.False(t, addr.Available())
			assert.Equal(t, domain.AddressUnavailable, addr.String())
			assert.ErrorIs(t, addr.Err, domain.ErrGeocodeUnavailable)
		})
	}
}

func TestReverse_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"display_name":"never"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	addr := nominatim.NewClient(nominatim.Options{URL: srv.URL}).Reverse(ctx, philly)
	assert.False(t, addr.Available())
}

func TestReverse_RateLimitHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"display_name":"somewhere"}`)
	}))
	defer srv.Close()

	c := nominatim.NewClient(nominatim.Options{URL: srv.URL, Rate: 0.1, Burst: 1})
	require.True(t, c.Reverse(context.Background(), philly).Available())

	// The bucket is now empty and refills every 10s, so a short deadline
	// must give up instead of blocking.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	addr := c.Reverse(ctx, philly)
	assert.False(t, addr.Available())
	assert.Less(t, time.Since(start), time.Second)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// redirectTo sends every request to srv regardless of the request host.
func redirectTo(srv *httptest.Server) *http.Client {
	target, _ := url.Parse(srv.URL)
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		return http.DefaultTransport.RoundTrip(r)
	})}
}

func TestNewClient_PublicEndpointCapsRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"display_name":"somewhere"}`)
	}))
	defer srv.Close()

	c := nominatim.NewClient(nominatim.Options{
		URL:        nominatim.DefaultURL,
		Rate:       50,
		Burst:      50,
		HTTPClient: redirectTo(srv),
	})
	require.True(t, c.Reverse(context.Background(), philly).Available())

	// Capped to one request per second, a second lookup cannot fit in 200ms.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.False(t, c.Reverse(ctx, philly).Available())
}

func TestNewClient_SelfHostedKeepsRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"display_name":"somewhere"}`)
	}))
	defer srv.Close()

	c := nominatim.NewClient(nominatim.Options{URL: srv.URL, Rate: 50, Burst: 5})
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		assert.True(t, c.Reverse(ctx, philly).Available(), "lookup %d", i)
		cancel()
	}
}

func TestIsPublicEndpoint(t *testing.T) {
	assert.True(t, nominatim.IsPublicEndpoint(nominatim.DefaultURL))
	assert.True(t, nominatim.IsPublicEndpoint("https://Nominatim.OpenStreetMap.org/"))
	assert.False(t, nominatim.IsPublicEndpoint("http://localhost:8088"))
	assert.False(t, nominatim.IsPublicEndpoint("https://nominatim.example.com"))
}
