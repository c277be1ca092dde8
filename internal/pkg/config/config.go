package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	Search    SearchConfig    `mapstructure:"search"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type OverpassConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	QueryTimeout   int    `mapstructure:"query_timeout"`
}

func (o OverpassConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

type NominatimConfig struct {
	URL            string  `mapstructure:"url"`
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
}

func (n NominatimConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

type SearchConfig struct {
	Radius                 float64 `mapstructure:"radius"`
	TopK                   int     `mapstructure:"top_k"`
	RequestTimeoutSeconds  int     `mapstructure:"request_timeout_seconds"`
	RequestLocationMessage string  `mapstructure:"request_location_message"`
	ErrorMessage           string  `mapstructure:"error_message"`
}

func (s SearchConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// Settings returns the chat settings configured for this process.
func (s SearchConfig) Settings() domain.Settings {
	return domain.Settings{
		RequestLocationMessage: s.RequestLocationMessage,
		ErrorMessage:           s.ErrorMessage,
		SearchRadius:           s.Radius,
	}.WithDefaults()
}

type NATSConfig struct {
	URL          string `mapstructure:"url"`
	Subject      string `mapstructure:"subject"`
	Queue        string `mapstructure:"queue"`
	TriggersOnly bool   `mapstructure:"triggers_only"`
	Workers      int    `mapstructure:"workers"`
}

type ValkeyConfig struct {
	Addr        string `mapstructure:"addr"`
	SettingsKey string `mapstructure:"settings_key"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_seconds", 30)
	v.SetDefault("overpass.query_timeout", 25)
	v.SetDefault("nominatim.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "nearbyplaces/0.1.0")
	v.SetDefault("nominatim.timeout_seconds", 10)
	v.SetDefault("nominatim.rate_per_second", 1.0)
	v.SetDefault("nominatim.burst", 1)
	v.SetDefault("search.radius", domain.DefaultSearchRadius)
	v.SetDefault("search.top_k", 5)
	v.SetDefault("search.request_timeout_seconds", 30)
	v.SetDefault("search.request_location_message", domain.DefaultRequestLocationMessage)
	v.SetDefault("search.error_message", domain.DefaultErrorMessage)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "chat.nearby")
	v.SetDefault("nats.queue", "nearby-workers")
	v.SetDefault("nats.triggers_only", false)
	v.SetDefault("nats.workers", 16)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.settings_key", "nearby:settings")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: NEARBY_SEARCH_RADIUS → search.radius
	v.SetEnvPrefix("NEARBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isPublicNominatim reports whether raw is the OSMF-hosted server, whose
// usage policy allows at most one request per second.
func isPublicNominatim(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), "nominatim.openstreetmap.org")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	if c.Overpass.TimeoutSeconds <= 0 {
		errs = append(errs, "overpass.timeout_seconds must be positive")
	}
	if c.Overpass.QueryTimeout <= 0 {
		errs = append(errs, "overpass.query_timeout must be positive")
	}
	if c.Nominatim.URL == "" {
		errs = append(errs, "nominatim.url is required")
	}
	if c.Nominatim.UserAgent == "" {
		errs = append(errs, "nominatim.user_agent is required")
	}
	if c.Nominatim.TimeoutSeconds <= 0 {
		errs = append(errs, "nominatim.timeout_seconds must be positive")
	}
	if c.Nominatim.RatePerSecond < 0 {
		errs = append(errs, "nominatim.rate_per_second must not be negative")
	}
	if isPublicNominatim(c.Nominatim.URL) {
		if c.Nominatim.RatePerSecond == 0 || c.Nominatim.RatePerSecond > 1 {
			errs = append(errs, fmt.Sprintf("nominatim.rate_per_second must be in (0, 1] for %s, got %v", c.Nominatim.URL, c.Nominatim.RatePerSecond))
		}
		if c.Nominatim.Burst > 1 {
			errs = append(errs, fmt.Sprintf("nominatim.burst must be at most 1 for %s, got %d", c.Nominatim.URL, c.Nominatim.Burst))
		}
	}
	if err := domain.ValidateRadius(c.Search.Radius); err != nil {
		errs = append(errs, "search."+err.Error())
	}
	if c.Search.TopK <= 0 {
		errs = append(errs, fmt.Sprintf("search.top_k must be positive, got %d", c.Search.TopK))
	}
	if c.Search.RequestTimeoutSeconds <= 0 {
		errs = append(errs, "search.request_timeout_seconds must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.NATS.Workers < 0 {
		errs = append(errs, "nats.workers must not be negative")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
