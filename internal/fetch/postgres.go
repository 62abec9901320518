package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abelbrown/reelcut/internal/model"
)

// ErrNotFound is returned when an item id is not in the catalogue.
var ErrNotFound = errors.New("item not found")

// PostgresSource serves pages from a feed_items table.
type PostgresSource struct {
	db *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{db: pool}, nil
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: pool}
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.db.Close()
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS feed_items (
	id TEXT PRIMARY KEY,
	media_url TEXT NOT NULL,
	poster_url TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	author_id TEXT NOT NULL DEFAULT '',
	author_name TEXT NOT NULL DEFAULT '',
	specialty TEXT NOT NULL DEFAULT '',
	likes BIGINT NOT NULL DEFAULT 0,
	comments BIGINT NOT NULL DEFAULT 0,
	shares BIGINT NOT NULL DEFAULT 0,
	views BIGINT NOT NULL DEFAULT 0,
	lat DOUBLE PRECISION,
	lon DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_feed_items_created ON feed_items (created_at DESC, id);
`

// EnsureSchema creates the catalogue table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveItems inserts items in one batch, skipping ids already present.
// Returns the number of rows inserted.
func (s *PostgresSource) SaveItems(ctx context.Context, items []model.FeedItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		var lat, lon *float64
		if it.Location != nil {
			lat, lon = &it.Location.Lat, &it.Location.Lon
		}
		batch.Queue(`
			INSERT INTO feed_items (
				id, media_url, poster_url, caption, author_id, author_name, specialty,
				likes, comments, shares, views, lat, lon, created_at, duration_ms
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO NOTHING`,
			it.ID, it.MediaURL, it.PosterURL, it.Caption, it.AuthorID, it.AuthorName, it.Specialty,
			it.Counters.Likes, it.Counters.Comments, it.Counters.Shares, it.Counters.Views,
			lat, lon, it.CreatedAt, it.Duration.Milliseconds(),
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for _, it := range items {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert %s: %w", it.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Query returns one page, newest first with the id as tie-breaker.
func (s *PostgresSource) Query(ctx context.Context, pageIndex, pageSize int, c model.Criterion) ([]model.FeedItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, media_url, poster_url, caption, author_id, author_name, specialty,
			likes, comments, shares, views, lat, lon, created_at, duration_ms
		FROM feed_items
		WHERE ($1 = '' OR specialty = $1)
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`,
		c.Specialty, pageSize, pageIndex*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query page %d: %w", pageIndex, err)
	}

	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scan page %d: %w", pageIndex, err)
	}
	if items == nil {
		items = []model.FeedItem{}
	}
	return items, nil
}

func scanItem(row pgx.CollectableRow) (model.FeedItem, error) {
	var (
		it         model.FeedItem
		lat, lon   *float64
		durationMs int64
	)
	err := row.Scan(
		&it.ID, &it.MediaURL, &it.PosterURL, &it.Caption, &it.AuthorID, &it.AuthorName, &it.Specialty,
		&it.Counters.Likes, &it.Counters.Comments, &it.Counters.Shares, &it.Counters.Views,
		&lat, &lon, &it.CreatedAt, &durationMs,
	)
	if err != nil {
		return model.FeedItem{}, err
	}
	if lat != nil && lon != nil {
		it.Location = &model.Coordinate{Lat: *lat, Lon: *lon}
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.Duration = time.Duration(durationMs) * time.Millisecond
	return it, nil
}

// IncrementCounter adds delta to one engagement counter.
func (s *PostgresSource) IncrementCounter(ctx context.Context, id string, counter model.Counter, delta int64) error {
	col, ok := counterColumns[counter]
	if !ok {
		return fmt.Errorf("increment %s: unknown counter %q", id, counter)
	}
	tag, err := s.db.Exec(ctx, "UPDATE feed_items SET "+col+" = "+col+" + $1 WHERE id = $2", delta, id)
	if err != nil {
		return fmt.Errorf("increment %s %s: %w", id, counter, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment %s: %w", id, ErrNotFound)
	}
	return nil
}

var counterColumns = map[model.Counter]string{
	model.CounterLikes:    "likes",
	model.CounterComments: "comments",
	model.CounterShares:   "shares",
	model.CounterViews:    "views",
}
