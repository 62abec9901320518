// Package fetch provides remote feed.DataSource implementations: a paged
// HTTP API, a media RSS/Atom feed and a Postgres catalogue.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/time/rate"

	"github.com/abelbrown/reelcut/internal/model"
)

const (
	userAgent       = "reelcut/1.0"
	maxResponseSize = 4 << 20
	contentTypeCBOR = "application/cbor"
	contentTypeJSON = "application/json"
)

// Page is the body of one page response, JSON or CBOR.
type Page struct {
	Items []model.FeedItem `json:"items" cbor:"items"`
}

// HTTPSource queries a paged feed API:
//
//	GET {base}?page=N&size=M[&specialty=S]
//
// and records counters with POST {base}/{id}/counters. Requests are rate
// limited and never retried; the user retries from the UI.
type HTTPSource struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithRate limits requests to perSecond, with a burst of 1. Zero or
// negative disables limiting.
func WithRate(perSecond float64) HTTPOption {
	return func(s *HTTPSource) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// NewHTTPSource creates a source for the API at base.
func NewHTTPSource(base string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		base:    base,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query fetches one page.
func (s *HTTPSource) Query(ctx context.Context, pageIndex, pageSize int, c model.Criterion) ([]model.FeedItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u, err := url.Parse(s.base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(pageIndex))
	q.Set("size", strconv.Itoa(pageSize))
	if c.Specialty != "" {
		q.Set("specialty", c.Specialty)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", contentTypeCBOR+", "+contentTypeJSON+";q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	page, err := decodePage(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// decodePage picks the codec from the media type. JSON is the default.
func decodePage(contentType string, body []byte) (Page, error) {
	var page Page
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case contentTypeCBOR:
		if err := cbor.Unmarshal(body, &page); err != nil {
			return Page{}, fmt.Errorf("cbor unmarshal: %w", err)
		}
	default:
		if err := json.Unmarshal(body, &page); err != nil {
			return Page{}, fmt.Errorf("parse response: %w", err)
		}
	}
	return page, nil
}

type counterRequest struct {
	Counter model.Counter `json:"counter"`
	Delta   int64         `json:"delta"`
}

// IncrementCounter posts a counter delta for one item.
func (s *HTTPSource) IncrementCounter(ctx context.Context, id string, counter model.Counter, delta int64) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(counterRequest{Counter: counter, Delta: delta})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	endpoint, err := url.JoinPath(s.base, url.PathEscape(id), "counters")
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("increment %s: HTTP %d", id, resp.StatusCode)
	}
	return nil
}

// EncodePage serializes a page in the requested codec. Used by test servers
// and the `page` command.
func EncodePage(contentType string, items []model.FeedItem) ([]byte, error) {
	page := Page{Items: items}
	if contentType == contentTypeCBOR {
		return cbor.Marshal(page)
	}
	return json.Marshal(page)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
