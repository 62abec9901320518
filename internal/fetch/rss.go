package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/abelbrown/reelcut/internal/model"
)

// RSSSource serves pages from a media RSS or Atom feed. Only entries that
// carry a video (enclosure, media:content or a video link) become items.
// The whole feed is fetched per query and paged locally.
type RSSSource struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewRSSSource creates a source for the feed at feedURL.
func NewRSSSource(feedURL string, timeout time.Duration) *RSSSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSSSource{
		url:    feedURL,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Query fetches the feed and returns the requested page, newest first with
// the id as tie-breaker. The specialty criterion matches feed categories.
func (s *RSSSource) Query(ctx context.Context, pageIndex, pageSize int, c model.Criterion) ([]model.FeedItem, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	items, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.Specialty != "" {
		kept := items[:0]
		for _, it := range items {
			if strings.EqualFold(it.Specialty, c.Specialty) {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	start := pageIndex * pageSize
	if start >= len(items) {
		return []model.FeedItem{}, nil
	}
	end := min(start+pageSize, len(items))
	return items[start:end], nil
}

func (s *RSSSource) fetch(ctx context.Context) ([]model.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	fetched := s.now()
	items := make([]model.FeedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if it, ok := convertEntry(entry, fetched); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// convertEntry maps a feed entry to an item. ok is false when the entry has
// no video.
func convertEntry(entry *gofeed.Item, fetched time.Time) (model.FeedItem, bool) {
	media := videoURL(entry)
	if media == "" {
		return model.FeedItem{}, false
	}

	created := fetched
	if entry.PublishedParsed != nil {
		created = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		created = *entry.UpdatedParsed
	}

	it := model.FeedItem{
		ID:        entryID(entry, media),
		MediaURL:  media,
		PosterURL: posterURL(entry),
		Caption:   entry.Title,
		CreatedAt: created.UTC(),
		Location:  geoPoint(entry),
	}
	if entry.Author != nil {
		it.AuthorName = entry.Author.Name
		it.AuthorID = entry.Author.Email
	}
	if it.AuthorID == "" {
		it.AuthorID = it.AuthorName
	}
	if len(entry.Categories) > 0 {
		it.Specialty = strings.ToLower(strings.TrimSpace(entry.Categories[0]))
	}
	if d := mediaDuration(entry); d > 0 {
		it.Duration = d
	}
	return it, true
}

func videoURL(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "video/") || isVideoPath(enc.URL) {
			return enc.URL
		}
	}
	for _, mc := range mediaContents(entry) {
		if mc.Attrs["medium"] == "video" || strings.HasPrefix(mc.Attrs["type"], "video/") || isVideoPath(mc.Attrs["url"]) {
			return mc.Attrs["url"]
		}
	}
	if isVideoPath(entry.Link) {
		return entry.Link
	}
	return ""
}

func mediaContents(entry *gofeed.Item) []ext.Extension {
	media := entry.Extensions["media"]
	out := append([]ext.Extension(nil), media["content"]...)
	// media:group wraps content elements in some feeds
	for _, g := range media["group"] {
		out = append(out, g.Children["content"]...)
	}
	return out
}

func posterURL(entry *gofeed.Item) string {
	if thumbs := entry.Extensions["media"]["thumbnail"]; len(thumbs) > 0 {
		if u := thumbs[0].Attrs["url"]; u != "" {
			return u
		}
	}
	if entry.Image != nil {
		return entry.Image.URL
	}
	return ""
}

func mediaDuration(entry *gofeed.Item) time.Duration {
	for _, mc := range mediaContents(entry) {
		if secs, err := strconv.ParseFloat(mc.Attrs["duration"], 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}

// geoPoint reads a GeoRSS <georss:point>lat lon</georss:point>.
func geoPoint(entry *gofeed.Item) *model.Coordinate {
	points := entry.Extensions["georss"]["point"]
	if len(points) == 0 {
		return nil
	}
	fields := strings.Fields(points[0].Value)
	if len(fields) != 2 {
		return nil
	}
	lat, err1 := strconv.ParseFloat(fields[0], 64)
	lon, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	c := model.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil
	}
	return &c
}

func isVideoPath(u string) bool {
	if u == "" {
		return false
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch strings.ToLower(path.Ext(u)) {
	case ".mp4", ".m4v", ".mov", ".webm", ".m3u8":
		return true
	}
	return false
}

// entryID creates a deterministic id from the GUID, falling back to the
// media locator.
func entryID(entry *gofeed.Item, media string) string {
	key := entry.GUID
	if key == "" {
		key = media
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}
