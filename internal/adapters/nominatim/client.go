// Package nominatim implements ports.ReverseGeocoder against a Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/pkg/logging"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
)

const (
	DefaultURL       = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "nearbyplaces/0.1.0"

	// PublicRateLimit is the usage-policy ceiling of the OSMF-hosted server,
	// in requests per second.
	PublicRateLimit = 1.0
)

// IsPublicEndpoint reports whether raw points at the OSMF-hosted server.
func IsPublicEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), "nominatim.openstreetmap.org")
}

// Options configures a Client.
type Options struct {
	URL        string
	UserAgent  string
	Timeout    time.Duration
	Rate       float64 // requests per second; 0 disables throttling on self-hosted servers
	Burst      int
	HTTPClient *http.Client
}

// Client implements ports.ReverseGeocoder.
type Client struct {
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a Nominatim client.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if IsPublicEndpoint(opts.URL) {
		if opts.Rate <= 0 || opts.Rate > PublicRateLimit {
			opts.Rate = PublicRateLimit
		}
		opts.Burst = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.Rate > 0 {
		if opts.Burst <= 0 {
			opts.Burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		userAgent:  opts.UserAgent,
		limiter:    limiter,
		httpClient: hc,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

// Reverse resolves p to a display name. Any failure, including
// cancellation of ctx, yields an unavailable Address.
func (c *Client) Reverse(ctx context.Context, p domain.GeoPoint) domain.Address {
	name, err := c.reverse(ctx, p)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("unavailable").Inc()
		logging.FromContext(ctx).WarnContext(ctx, "reverse geocode failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		return domain.UnavailableAddress(err)
	}
	metrics.GeocodeLookups.WithLabelValues("ok").Inc()
	return domain.ResolvedAddress(name)
}

func (c *Client) reverse(ctx context.Context, p domain.GeoPoint) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(p.Lon, 'f', -1, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim HTTP %d", resp.StatusCode)
	}

	var r reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode nominatim response: %w", err)
	}
	if r.Error != "" {
		return "", errors.New(r.Error)
	}
	if r.DisplayName == "" {
		return "", errors.New("empty display_name")
	}
	return r.DisplayName, nil
}
