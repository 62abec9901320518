package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/otel"
)

// State is the read-only view of the pager exposed to the render surface.
type State struct {
	Items      []model.FeedItem
	PageCursor int // next page index to fetch
	EndReached bool
	Loading    bool
	Err        error
}

// ErrorText returns the error message, or "" when there is none.
func (s State) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// fetchHandle is the single in-flight fetch. Loading is true iff one exists.
type fetchHandle struct {
	id      uint64
	page    int
	cancel  context.CancelFunc
	started time.Time
}

// Pager owns FeedState. NOT safe for concurrent use: see package doc.
type Pager struct {
	src       DataSource
	pageSize  int
	timeout   time.Duration
	criterion model.Criterion
	location  model.LocationFilter
	shuffle   Shuffler
	log       *otel.Logger

	fetched  []model.FeedItem // fetch order; the page 0 shuffle is baked in
	seen     map[string]struct{}
	state    State
	lastID   uint64
	inflight *fetchHandle
}

// Option configures a Pager.
type Option func(*Pager)

// WithPageSize sets the page size. Values < 1 are ignored.
func WithPageSize(n int) Option {
	return func(p *Pager) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithShuffler replaces the page 0 shuffle (tests use NoShuffle).
func WithShuffler(s Shuffler) Option {
	return func(p *Pager) {
		if s != nil {
			p.shuffle = s
		}
	}
}

// WithLogger attaches an event logger.
func WithLogger(l *otel.Logger) Option {
	return func(p *Pager) { p.log = l }
}

// WithCriterion sets the initial data-source filter.
func WithCriterion(c model.Criterion) Option {
	return func(p *Pager) { p.criterion = c }
}

// WithLocation sets the initial location filter.
func WithLocation(f model.LocationFilter) Option {
	return func(p *Pager) { p.location = f }
}

// WithFetchTimeout bounds each page fetch. Zero means no timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pager) { p.timeout = d }
}

// New creates a Pager reading from src.
func New(src DataSource, opts ...Option) *Pager {
	p := &Pager{
		src:      src,
		pageSize: DefaultPageSize,
		shuffle:  RandomShuffler(time.Now().UnixNano()),
		location: model.LocationFilter{Sort: model.SortDistance},
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a snapshot of the feed state. The Items slice is a copy.
func (p *Pager) State() State {
	s := p.state
	s.Items = append([]model.FeedItem(nil), p.state.Items...)
	return s
}

// Len returns the number of loaded items.
func (p *Pager) Len() int {
	return len(p.state.Items)
}

// Criterion returns the active data-source filter.
func (p *Pager) Criterion() model.Criterion {
	return p.criterion
}

// Location returns the active location filter.
func (p *Pager) Location() model.LocationFilter {
	return p.location
}

// FetchPage fetches the page at the cursor. At page 0 it is a no-op while a
// fetch is in flight; at any page it is a no-op once the end was reached.
// For later pages a call while loading supersedes the in-flight fetch.
func (p *Pager) FetchPage(ctx context.Context) tea.Cmd {
	if p.state.EndReached {
		p.skipped("end reached")
		return nil
	}
	if p.state.PageCursor == 0 && p.state.Loading {
		p.skipped("initial page in flight")
		return nil
	}
	return p.begin(ctx, p.state.PageCursor)
}

// SetCriterion changes the data-source filter. A different criterion
// restarts paging from page 0; the same criterion behaves like FetchPage.
func (p *Pager) SetCriterion(ctx context.Context, c model.Criterion) tea.Cmd {
	if c == p.criterion {
		return p.FetchPage(ctx)
	}
	p.criterion = c
	return p.Refresh(ctx)
}

// Refresh cancels any in-flight fetch, rewinds the cursor to page 0 and
// fetches it. Items stay visible until page 0 replaces them.
func (p *Pager) Refresh(ctx context.Context) tea.Cmd {
	p.cancelInflight()
	p.state.PageCursor = 0
	p.state.EndReached = false
	p.state.Err = nil
	return p.begin(ctx, 0)
}

// PrefetchNext fetches the next page unless one is loading, the end was
// reached or the last fetch failed. A failed page is only retried through
// FetchPage or Refresh.
func (p *Pager) PrefetchNext(ctx context.Context) tea.Cmd {
	if p.state.Loading || p.state.EndReached {
		return nil
	}
	if p.state.Err != nil {
		p.skipped("last fetch failed")
		return nil
	}
	return p.begin(ctx, p.state.PageCursor)
}

// ShouldPrefetch reports whether the item at index is within distance items
// of the end of the loaded window.
func (p *Pager) ShouldPrefetch(index, distance int) bool {
	n := len(p.state.Items)
	return n > 0 && index >= n-1-distance
}

// Close cancels any in-flight fetch. Its result will be discarded.
func (p *Pager) Close() {
	p.cancelInflight()
	p.state.Loading = false
}

func (p *Pager) begin(ctx context.Context, page int) tea.Cmd {
	p.cancelInflight()

	p.lastID++
	id := p.lastID

	var fctx context.Context
	var cancel context.CancelFunc
	if p.timeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		fctx, cancel = context.WithCancel(ctx)
	}
	p.inflight = &fetchHandle{id: id, page: page, cancel: cancel, started: time.Now()}
	p.state.Loading = true

	p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchStart, Comp: "feed", ReqID: id, Page: page})

	src, size, crit := p.src, p.pageSize, p.criterion
	return func() tea.Msg {
		start := time.Now()
		items, err := src.Query(fctx, page, size, crit)
		return PageLoaded{RequestID: id, Page: page, Items: items, Err: err, Took: time.Since(start)}
	}
}

func (p *Pager) cancelInflight() {
	if p.inflight == nil {
		return
	}
	p.inflight.cancel()
	p.inflight = nil
}

// Apply commits a fetch result if it belongs to the live request and
// reports whether state changed. Results of superseded or cancelled fetches
// are dropped without touching state.
func (p *Pager) Apply(msg PageLoaded) bool {
	h := p.inflight
	if h == nil || msg.RequestID != h.id {
		p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStale, Comp: "feed", ReqID: msg.RequestID, Page: msg.Page})
		return false
	}
	h.cancel()
	p.inflight = nil
	p.state.Loading = false

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			// Parent context is gone (shutdown). Not an error, but Loading
			// dropped.
			p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStale, Comp: "feed", ReqID: msg.RequestID, Page: msg.Page, Msg: "cancelled"})
			return true
		}
		p.state.Err = &NetworkError{Page: msg.Page, Err: msg.Err}
		p.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFetchError, Comp: "feed", ReqID: msg.RequestID, Page: msg.Page, Err: msg.Err.Error(), Dur: msg.Took})
		return true
	}

	p.state.Err = nil
	if msg.Page == 0 {
		p.fetched = nil
		p.seen = make(map[string]struct{}, len(msg.Items))
	}

	page := p.dedupe(msg.Items)
	if msg.Page == 0 && !p.location.SortsByDistance() {
		p.shuffle(page)
	}
	p.fetched = append(p.fetched, page...)
	p.state.PageCursor = msg.Page + 1
	p.state.EndReached = len(msg.Items) < p.pageSize
	p.resort()

	p.log.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "feed",
		ReqID: msg.RequestID, Page: msg.Page, Count: len(page), Dur: msg.Took,
		Extra: map[string]any{"end_reached": p.state.EndReached, "total": len(p.fetched)},
	})
	return true
}

// dedupe drops items already loaded (or repeated within the page).
func (p *Pager) dedupe(items []model.FeedItem) []model.FeedItem {
	out := make([]model.FeedItem, 0, len(items))
	for _, it := range items {
		if _, ok := p.seen[it.ID]; ok {
			continue
		}
		p.seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// SetLocation replaces the location filter and re-sorts the loaded items.
// It never fetches. Reports whether the filter changed.
func (p *Pager) SetLocation(f model.LocationFilter) bool {
	if f.Equal(p.location) {
		return false
	}
	p.location = f
	p.resort()
	p.log.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindResort, Comp: "feed", Count: len(p.state.Items),
		Msg: fmt.Sprintf("enabled=%t distance=%t", f.Enabled, f.SortsByDistance()),
	})
	return true
}

// resort derives Items from the fetch order: distances are filled in when
// location is enabled and known, and the order is by distance when
// SortsByDistance, else fetch order.
func (p *Pager) resort() {
	var origin *model.Coordinate
	if p.location.Enabled {
		origin = p.location.Coordinate
	}
	items := withDistances(p.fetched, origin)
	if p.location.SortsByDistance() {
		sortByDistance(items)
	}
	p.state.Items = items
}

// Bump applies an optimistic counter increment to a loaded item and, when
// the source persists counters, returns the Cmd that records it.
func (p *Pager) Bump(ctx context.Context, id string, counter model.Counter) tea.Cmd {
	if !p.addCounter(id, counter, 1) {
		return nil
	}
	p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCounterBump, Comp: "feed", ItemID: id, Msg: string(counter)})

	rec, ok := p.src.(CounterRecorder)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		err := rec.IncrementCounter(ctx, id, counter, 1)
		return CounterRecorded{ItemID: id, Counter: counter, Err: err}
	}
}

// ApplyCounter reverts an optimistic increment whose persistence failed.
func (p *Pager) ApplyCounter(msg CounterRecorded) {
	if msg.Err == nil {
		return
	}
	p.addCounter(msg.ItemID, msg.Counter, -1)
	p.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCounterBump, Comp: "feed", ItemID: msg.ItemID, Err: msg.Err.Error(), Msg: "reverted"})
}

func (p *Pager) addCounter(id string, counter model.Counter, delta int64) bool {
	found := false
	for i := range p.fetched {
		if p.fetched[i].ID == id {
			p.fetched[i].Counters.Add(counter, delta)
			found = true
			break
		}
	}
	if found {
		for i := range p.state.Items {
			if p.state.Items[i].ID == id {
				p.state.Items[i].Counters.Add(counter, delta)
				break
			}
		}
	}
	return found
}

func (p *Pager) skipped(reason string) {
	p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchSkipped, Comp: "feed", Page: p.state.PageCursor, Msg: reason})
}
