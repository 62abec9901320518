// Package config loads the persistent reelcut configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the persistent application configuration
type Config struct {
	Feed     FeedConfig     `json:"feed"`
	Playback PlaybackConfig `json:"playback"`
	Source   SourceConfig   `json:"source"`
	Location LocationConfig `json:"location"`
	Log      LogConfig      `json:"log"`
}

// FeedConfig holds pager settings
type FeedConfig struct {
	PageSize         int    `json:"page_size"`
	PrefetchDistance int    `json:"prefetch_distance"` // items from the end that trigger the next page
	Specialty        string `json:"specialty,omitempty"`
	FetchTimeoutMs   int    `json:"fetch_timeout_ms"` // 0 = no timeout
}

// PlaybackConfig holds coordinator and session settings
type PlaybackConfig struct {
	VisibilityThreshold float64 `json:"visibility_threshold"`
	HoldThresholdMs     int     `json:"hold_threshold_ms"`
	WindowRadius        int     `json:"window_radius"` // sessions mounted on each side of the active item
	StartMuted          bool    `json:"start_muted"`
}

// SourceConfig selects the data source
type SourceConfig struct {
	Kind          string  `json:"kind"` // "sqlite", "http", "rss" or "postgres"
	URL           string  `json:"url,omitempty"`
	DSN           string  `json:"dsn,omitempty"` // sqlite path or postgres DSN
	RatePerSecond float64 `json:"rate_per_second"`
}

// LocationConfig holds the viewer-location settings
type LocationConfig struct {
	Enabled     bool     `json:"enabled"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	IPLookupURL string   `json:"ip_lookup_url,omitempty"`
	Consent     bool     `json:"consent"` // permission to look the viewer up by IP
}

// LogConfig holds log locations
type LogConfig struct {
	Dir string `json:"dir,omitempty"` // default ~/.reelcut/logs
}

// Source kinds.
const (
	SourceSQLite   = "sqlite"
	SourceHTTP     = "http"
	SourceRSS      = "rss"
	SourcePostgres = "postgres"
)

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			PageSize:         8,
			PrefetchDistance: 2,
		},
		Playback: PlaybackConfig{
			VisibilityThreshold: 0.85,
			HoldThresholdMs:     1000,
			WindowRadius:        2,
			StartMuted:          false,
		},
		Source: SourceConfig{
			Kind:          SourceSQLite,
			DSN:           filepath.Join(Dir(), "feed.db"),
			RatePerSecond: 4,
		},
		Location: LocationConfig{
			Enabled:     true,
			IPLookupURL: "http://ip-api.com/json/?fields=status,lat,lon",
		},
	}
}

// Dir returns ~/.reelcut.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".reelcut")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads config from disk, or returns defaults. A .env file in the
// working directory is loaded first; REELCUT_* variables override the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.AutoPopulateFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600) // may hold a database DSN
}

// AutoPopulateFromEnv applies REELCUT_* overrides.
func (c *Config) AutoPopulateFromEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flt := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	coord := func(key string, dst **float64) {
		var f float64
		if _, ok := os.LookupEnv(key); ok {
			flt(key, &f)
			*dst = &f
		}
	}

	num("REELCUT_PAGE_SIZE", &c.Feed.PageSize)
	num("REELCUT_PREFETCH_DISTANCE", &c.Feed.PrefetchDistance)
	str("REELCUT_SPECIALTY", &c.Feed.Specialty)
	num("REELCUT_FETCH_TIMEOUT_MS", &c.Feed.FetchTimeoutMs)
	flt("REELCUT_VISIBILITY_THRESHOLD", &c.Playback.VisibilityThreshold)
	num("REELCUT_HOLD_THRESHOLD_MS", &c.Playback.HoldThresholdMs)
	num("REELCUT_WINDOW_RADIUS", &c.Playback.WindowRadius)
	flag("REELCUT_START_MUTED", &c.Playback.StartMuted)
	str("REELCUT_SOURCE", &c.Source.Kind)
	str("REELCUT_SOURCE_URL", &c.Source.URL)
	str("REELCUT_SOURCE_DSN", &c.Source.DSN)
	flt("REELCUT_RATE_PER_SECOND", &c.Source.RatePerSecond)
	flag("REELCUT_LOCATION", &c.Location.Enabled)
	coord("REELCUT_LATITUDE", &c.Location.Latitude)
	coord("REELCUT_LONGITUDE", &c.Location.Longitude)
	str("REELCUT_IP_LOOKUP_URL", &c.Location.IPLookupURL)
	flag("REELCUT_LOCATION_CONSENT", &c.Location.Consent)
	str("REELCUT_LOG_DIR", &c.Log.Dir)

	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize))
	}
	if c.Feed.PrefetchDistance < 0 {
		errs = append(errs, fmt.Errorf("feed.prefetch_distance must not be negative, got %d", c.Feed.PrefetchDistance))
	}
	if c.Feed.FetchTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("feed.fetch_timeout_ms must not be negative, got %d", c.Feed.FetchTimeoutMs))
	}
	if t := c.Playback.VisibilityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("playback.visibility_threshold must be in (0, 1], got %g", t))
	}
	if c.Playback.HoldThresholdMs <= 0 {
		errs = append(errs, fmt.Errorf("playback.hold_threshold_ms must be positive, got %d", c.Playback.HoldThresholdMs))
	}
	if c.Playback.WindowRadius < 0 {
		errs = append(errs, fmt.Errorf("playback.window_radius must not be negative, got %d", c.Playback.WindowRadius))
	}

	switch c.Source.Kind {
	case SourceSQLite, SourcePostgres:
		if c.Source.DSN == "" {
			errs = append(errs, fmt.Errorf("source.dsn is required for %s", c.Source.Kind))
		}
	case SourceHTTP, SourceRSS:
		if c.Source.URL == "" {
			errs = append(errs, fmt.Errorf("source.url is required for %s", c.Source.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q is not one of sqlite, http, rss, postgres", c.Source.Kind))
	}

	lat, lon := c.Location.Latitude, c.Location.Longitude
	if (lat == nil) != (lon == nil) {
		errs = append(errs, errors.New("location.latitude and location.longitude must be set together"))
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, fmt.Errorf("location.latitude out of range: %g", *lat))
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		errs = append(errs, fmt.Errorf("location.longitude out of range: %g", *lon))
	}
	return errors.Join(errs...)
}

// FetchTimeout returns the per-page fetch timeout, 0 for none.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Feed.FetchTimeoutMs) * time.Millisecond
}

// HoldThreshold returns the press duration that becomes a hold.
func (c *Config) HoldThreshold() time.Duration {
	return time.Duration(c.Playback.HoldThresholdMs) * time.Millisecond
}

// LogDir returns the configured log directory or ~/.reelcut/logs.
func (c *Config) LogDir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return filepath.Join(Dir(), "logs")
}
