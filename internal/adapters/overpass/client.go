// Package overpass implements ports.FeatureStore against the Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
)

// DefaultURL is the public Overpass interpreter endpoint.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// Options configures a Client.
type Options struct {
	URL          string
	Timeout      time.Duration
	QueryTimeout int // seconds, sent to the server inside the query
	HTTPClient   *http.Client
}

// Client implements ports.FeatureStore.
type Client struct {
	url          string
	queryTimeout int
	httpClient   *http.Client
}

// NewClient creates an Overpass client.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{url: opts.URL, queryTimeout: opts.QueryTimeout, httpClient: hc}
}

// element is one entry of the Overpass JSON "elements" array. Ways carry
// their position in Center when queried with "out center".
type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *domain.GeoPoint  `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
	Remark   string    `json:"remark,omitempty"`
}

// Search runs the union query for q and returns tagged features.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error) {
	start := time.Now()
	features, err := c.search(ctx, q)
	metrics.FeatureStoreDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeatureStoreRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	metrics.FeatureStoreRequests.WithLabelValues("ok").Inc()
	return features, nil
}

func (c *Client) search(ctx context.Context, q domain.SearchQuery) ([]domain.Feature, error) {
	form := url.Values{"data": {BuildQuery(q, c.queryTimeout)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	if r.Remark != "" {
		slog.WarnContext(ctx, "overpass remark", "remark", r.Remark)
	}

	return toFeatures(r.Elements), nil
}

// toFeatures keeps elements that have tags and a usable position.
func toFeatures(elements []element) []domain.Feature {
	features := make([]domain.Feature, 0, len(elements))
	for _, e := range elements {
		if len(e.Tags) == 0 {
			continue
		}
		var loc domain.GeoPoint
		switch {
		case e.Lat != nil && e.Lon != nil:
			loc = domain.GeoPoint{Lat: *e.Lat, Lon: *e.Lon}
		case e.Center != nil:
			loc = *e.Center
		default:
			continue
		}
		features = append(features, domain.Feature{
			ID:       e.ID,
			Type:     e.Type,
			Tags:     e.Tags,
			Location: loc,
		})
	}
	return features
}
