// Package model defines the feed domain types shared by the pager, the
// playback core and the data sources.
package model

import "time"

// Counter identifies one of an item's engagement counters.
type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterComments Counter = "comments"
	CounterShares   Counter = "shares"
	CounterViews    Counter = "views"
)

// Counters holds engagement totals as last reported upstream, plus any
// local optimistic increments.
type Counters struct {
	Likes    int64 `json:"likes" cbor:"likes"`
	Comments int64 `json:"comments" cbor:"comments"`
	Shares   int64 `json:"shares" cbor:"shares"`
	Views    int64 `json:"views" cbor:"views"`
}

// Add increments the named counter by n. Unknown counters are ignored.
func (c *Counters) Add(counter Counter, n int64) {
	switch counter {
	case CounterLikes:
		c.Likes += n
	case CounterComments:
		c.Comments += n
	case CounterShares:
		c.Shares += n
	case CounterViews:
		c.Views += n
	}
}

// FeedItem is one entry of the video feed. Immutable once fetched except for
// optimistic counter increments and the locally computed DistanceKm.
type FeedItem struct {
	ID         string        `json:"id" cbor:"id"`
	MediaURL   string        `json:"media_url" cbor:"media_url"`
	PosterURL  string        `json:"poster_url,omitempty" cbor:"poster_url,omitempty"`
	Caption    string        `json:"caption" cbor:"caption"`
	AuthorID   string        `json:"author_id" cbor:"author_id"`
	AuthorName string        `json:"author_name,omitempty" cbor:"author_name,omitempty"`
	Specialty  string        `json:"specialty,omitempty" cbor:"specialty,omitempty"`
	Counters   Counters      `json:"counters" cbor:"counters"`
	Location   *Coordinate   `json:"location,omitempty" cbor:"location,omitempty"`
	CreatedAt  time.Time     `json:"created_at" cbor:"created_at"`
	Duration   time.Duration `json:"duration_ns,omitempty" cbor:"duration_ns,omitempty"`

	// DistanceKm is computed on the client from the viewer's coordinate.
	// Never persisted upstream.
	DistanceKm *float64 `json:"-" cbor:"-"`
}

// HasPoster reports whether the item carries a poster frame locator.
func (it FeedItem) HasPoster() bool {
	return it.PosterURL != ""
}

// Criterion is the data-source filter. Results are always ordered by
// recency (newest first) with the id as tie-breaker.
type Criterion struct {
	Specialty string `json:"specialty,omitempty"`
}

// IsZero reports whether the criterion filters nothing.
func (c Criterion) IsZero() bool {
	return c.Specialty == ""
}
