package feed

import (
	"time"

	"github.com/abelbrown/reelcut/internal/model"
)

// PageLoaded is sent when a page fetch returns, successfully or not.
// RequestID is compared against the pager's live request before commit.
type PageLoaded struct {
	RequestID uint64
	Page      int
	Items     []model.FeedItem
	Err       error
	Took      time.Duration
}

// CounterRecorded is sent when a persisted counter increment finishes.
type CounterRecorded struct {
	ItemID  string
	Counter model.Counter
	Err     error
}
