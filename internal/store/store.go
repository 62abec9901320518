// Package store provides SQLite persistence for the feed catalogue. A Store
// is a feed.DataSource and a feed.CounterRecorder.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/reelcut/internal/model"
)

// ErrNotFound is returned when an item id is not in the catalogue.
var ErrNotFound = errors.New("item not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// createTables creates the catalogue table and indexes if they don't exist.
// created_at is unix milliseconds so ordering is numeric.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feed_items (
		id TEXT PRIMARY KEY,
		media_url TEXT NOT NULL,
		poster_url TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		author_id TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		specialty TEXT NOT NULL DEFAULT '',
		likes INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		shares INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		lat REAL,
		lon REAL,
		created_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_feed_items_created ON feed_items(created_at DESC, id);
	CREATE INDEX IF NOT EXISTS idx_feed_items_specialty ON feed_items(specialty);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveItems stores items, returning count of new items inserted.
// Duplicates (by id) are silently ignored via INSERT OR IGNORE.
func (s *Store) SaveItems(ctx context.Context, items []model.FeedItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO feed_items (
			id, media_url, poster_url, caption, author_id, author_name, specialty,
			likes, comments, shares, views, lat, lon, created_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for _, it := range items {
		if it.ID == "" {
			return 0, fmt.Errorf("save item: empty id (media %q)", it.MediaURL)
		}
		var lat, lon sql.NullFloat64
		if it.Location != nil {
			lat = sql.NullFloat64{Float64: it.Location.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: it.Location.Lon, Valid: true}
		}
		result, err := stmt.ExecContext(ctx,
			it.ID, it.MediaURL, it.PosterURL, it.Caption, it.AuthorID, it.AuthorName, it.Specialty,
			it.Counters.Likes, it.Counters.Comments, it.Counters.Shares, it.Counters.Views,
			lat, lon, it.CreatedAt.UnixMilli(), it.Duration.Milliseconds(),
		)
		if err != nil {
			return 0, fmt.Errorf("save item %s: %w", it.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			newCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newCount, nil
}

// Query returns one page of the catalogue, newest first with the id as
// tie-breaker, optionally restricted to a specialty.
// Thread-safe: acquires read lock.
func (s *Store) Query(ctx context.Context, pageIndex, pageSize int, c model.Criterion) ([]model.FeedItem, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("query: invalid page %d size %d", pageIndex, pageSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, media_url, poster_url, caption, author_id, author_name, specialty,
			likes, comments, shares, views, lat, lon, created_at, duration_ms
		FROM feed_items
		WHERE (? = '' OR specialty = ?)
		ORDER BY created_at DESC, id ASC
		LIMIT ? OFFSET ?
	`, c.Specialty, c.Specialty, pageSize, pageIndex*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query page %d: %w", pageIndex, err)
	}
	defer rows.Close()

	items := make([]model.FeedItem, 0, pageSize)
	for rows.Next() {
		var (
			it         model.FeedItem
			lat, lon   sql.NullFloat64
			created    int64
			durationMs int64
		)
		err := rows.Scan(
			&it.ID, &it.MediaURL, &it.PosterURL, &it.Caption, &it.AuthorID, &it.AuthorName, &it.Specialty,
			&it.Counters.Likes, &it.Counters.Comments, &it.Counters.Shares, &it.Counters.Views,
			&lat, &lon, &created, &durationMs,
		)
		if err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			it.Location = &model.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
		}
		it.CreatedAt = time.UnixMilli(created).UTC()
		it.Duration = time.Duration(durationMs) * time.Millisecond
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementCounter adds delta to one engagement counter of an item.
// Thread-safe: acquires write lock.
func (s *Store) IncrementCounter(ctx context.Context, id string, counter model.Counter, delta int64) error {
	col, ok := counterColumns[counter]
	if !ok {
		return fmt.Errorf("increment %s: unknown counter %q", id, counter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE feed_items SET "+col+" = "+col+" + ? WHERE id = ?", delta, id)
	if err != nil {
		return fmt.Errorf("increment %s %s: %w", id, counter, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("increment %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of catalogue items matching c.
func (s *Store) Count(ctx context.Context, c model.Criterion) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM feed_items WHERE (? = '' OR specialty = ?)",
		c.Specialty, c.Specialty,
	).Scan(&n)
	return n, err
}

// counterColumns whitelists the columns IncrementCounter may touch.
var counterColumns = map[model.Counter]string{
	model.CounterLikes:    "likes",
	model.CounterComments: "comments",
	model.CounterShares:   "shares",
	model.CounterViews:    "views",
}
