package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/reelcut/internal/config"
	"github.com/abelbrown/reelcut/internal/feed"
	"github.com/abelbrown/reelcut/internal/fetch"
	"github.com/abelbrown/reelcut/internal/geo"
	"github.com/abelbrown/reelcut/internal/logging"
	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/store"
)

const rssTimeout = 30 * time.Second

// eventLogPath returns the JSONL event log under the log directory.
func eventLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.LogDir(), "reelcut.events.jsonl")
}

// openSource builds the configured data source. The returned func releases
// it and is never nil.
func openSource(ctx context.Context, cfg *config.Config) (feed.DataSource, func(), error) {
	noop := func() {}
	switch cfg.Source.Kind {
	case config.SourceSQLite:
		if cfg.Source.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Source.DSN), 0755); err != nil {
				return nil, noop, fmt.Errorf("create data directory: %w", err)
			}
		}
		st, err := store.Open(cfg.Source.DSN)
		if err != nil {
			return nil, noop, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logging.Warn("close store", "error", err)
			}
		}, nil

	case config.SourceHTTP:
		return fetch.NewHTTPSource(cfg.Source.URL, fetch.WithRate(cfg.Source.RatePerSecond)), noop, nil

	case config.SourceRSS:
		return fetch.NewRSSSource(cfg.Source.URL, rssTimeout), noop, nil

	case config.SourcePostgres:
		pg, err := fetch.OpenPostgres(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, noop, err
		}
		return pg, pg.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

// geoProvider returns a fixed coordinate when one is configured, else the
// IP lookup.
func geoProvider(cfg *config.Config) geo.Provider {
	loc := cfg.Location
	if loc.Latitude != nil && loc.Longitude != nil {
		return geo.Static{Coord: &model.Coordinate{Lat: *loc.Latitude, Lon: *loc.Longitude}}
	}
	return geo.NewIPProvider(loc.IPLookupURL, loc.Consent)
}

func criterion(cfg *config.Config) model.Criterion {
	return model.Criterion{Specialty: cfg.Feed.Specialty}
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
