// Package feed implements the feed pager: page-indexed retrieval with
// last-request-wins cancellation, end-of-data detection and client-side
// re-sorting by distance.
//
// A Pager is owned by one event loop. Every method must be called from that
// loop; only the tea.Cmd closures it returns run elsewhere, and their results
// come back through Apply.
package feed

import (
	"context"
	"fmt"

	"github.com/abelbrown/reelcut/internal/model"
)

// DefaultPageSize is the number of items requested per page.
const DefaultPageSize = 8

// DataSource is the paginated query collaborator. pageIndex is 0-based. A
// page shorter than pageSize signals end of data.
type DataSource interface {
	Query(ctx context.Context, pageIndex, pageSize int, c model.Criterion) ([]model.FeedItem, error)
}

// CounterRecorder is implemented by data sources that persist engagement
// counters. Optional.
type CounterRecorder interface {
	IncrementCounter(ctx context.Context, id string, counter model.Counter, delta int64) error
}

// NetworkError reports a failed, non-cancelled page fetch.
type NetworkError struct {
	Page int
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
