// Package geo is the geolocation adapter: a permission-gated, single-shot
// coordinate lookup plus the haversine distance used for distance sort.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/reelcut/internal/model"
)

var (
	// ErrPermissionDenied means the user has not allowed location access.
	ErrPermissionDenied = errors.New("geo: permission denied")
	// ErrServicesDisabled means no location service is available.
	ErrServicesDisabled = errors.New("geo: location services disabled")
)

// Provider is the geolocation collaborator. Both calls are single-shot.
type Provider interface {
	RequestPermission(ctx context.Context) error
	CurrentCoordinate(ctx context.Context) (model.Coordinate, error)
}

// Locate requests permission and then the current coordinate.
func Locate(ctx context.Context, p Provider) (model.Coordinate, error) {
	if p == nil {
		return model.Coordinate{}, ErrServicesDisabled
	}
	if err := p.RequestPermission(ctx); err != nil {
		return model.Coordinate{}, err
	}
	return p.CurrentCoordinate(ctx)
}

// Unavailable reports whether err is one of the degrade-only geolocation
// failures rather than a transport problem.
func Unavailable(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrServicesDisabled)
}

// Static serves a fixed coordinate. A nil Coord behaves as disabled services.
type Static struct {
	Coord  *model.Coordinate
	Denied bool
}

func (s Static) RequestPermission(ctx context.Context) error {
	if s.Denied {
		return ErrPermissionDenied
	}
	return nil
}

func (s Static) CurrentCoordinate(ctx context.Context) (model.Coordinate, error) {
	if s.Denied {
		return model.Coordinate{}, ErrPermissionDenied
	}
	if s.Coord == nil {
		return model.Coordinate{}, ErrServicesDisabled
	}
	return *s.Coord, nil
}

// IPProvider resolves an approximate coordinate from an IP geolocation
// endpoint returning {"lat": .., "lon": ..} (ip-api.com style). The lookup
// is only made when the user consented.
type IPProvider struct {
	endpoint string
	consent  bool
	client   *http.Client
	limiter  *rate.Limiter
}

// NewIPProvider creates an IPProvider. An empty endpoint disables it.
func NewIPProvider(endpoint string, consent bool) *IPProvider {
	return &IPProvider{
		endpoint: endpoint,
		consent:  consent,
		client:   &http.Client{Timeout: 5 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (p *IPProvider) RequestPermission(ctx context.Context) error {
	if p.endpoint == "" {
		return ErrServicesDisabled
	}
	if !p.consent {
		return ErrPermissionDenied
	}
	return nil
}

type ipLookupResponse struct {
	Status string   `json:"status"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
}

func (p *IPProvider) CurrentCoordinate(ctx context.Context) (model.Coordinate, error) {
	if err := p.RequestPermission(ctx); err != nil {
		return model.Coordinate{}, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return model.Coordinate{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("%w: %v", ErrServicesDisabled, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Coordinate{}, fmt.Errorf("%w: HTTP %d", ErrServicesDisabled, resp.StatusCode)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Coordinate{}, fmt.Errorf("parse response: %w", err)
	}
	if body.Status == "fail" || body.Lat == nil || body.Lon == nil {
		return model.Coordinate{}, fmt.Errorf("%w: lookup failed", ErrServicesDisabled)
	}

	c := model.Coordinate{Lat: *body.Lat, Lon: *body.Lon}
	if !c.Valid() {
		return model.Coordinate{}, fmt.Errorf("%w: invalid coordinate %s", ErrServicesDisabled, c)
	}
	return c, nil
}
