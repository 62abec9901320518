package geo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/abelbrown/reelcut/internal/model"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Coordinate
		want float64
	}{
		{"same point", model.Coordinate{Lat: 10, Lon: 10}, model.Coordinate{Lat: 10, Lon: 10}, 0},
		// one degree of arc on a 6371 km sphere
		{"one degree on equator", model.Coordinate{}, model.Coordinate{Lat: 0, Lon: 1}, 111.195},
		{"two degrees on equator", model.Coordinate{}, model.Coordinate{Lat: 0, Lon: 2}, 222.390},
		{"paris to london", model.Coordinate{Lat: 48.8566, Lon: 2.3522}, model.Coordinate{Lat: 51.5074, Lon: -0.1278}, 343.56},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.5 {
				t.Errorf("Distance() = %.3f, want ~%.3f", got, tt.want)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := model.Coordinate{Lat: -33.87, Lon: 151.21}
	b := model.Coordinate{Lat: 40.71, Lon: -74.0}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestLocateStatic(t *testing.T) {
	here := model.Coordinate{Lat: 1, Lon: 2}

	got, err := Locate(context.Background(), Static{Coord: &here})
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if got != here {
		t.Errorf("Locate() = %v, want %v", got, here)
	}

	_, err = Locate(context.Background(), Static{Coord: &here, Denied: true})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}

	_, err = Locate(context.Background(), Static{})
	if !errors.Is(err, ErrServicesDisabled) {
		t.Errorf("expected ErrServicesDisabled, got %v", err)
	}

	_, err = Locate(context.Background(), nil)
	if !Unavailable(err) {
		t.Errorf("nil provider should be unavailable, got %v", err)
	}
}

func TestIPProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","lat":52.52,"lon":13.405}`))
	}))
	defer server.Close()

	p := NewIPProvider(server.URL, true)
	p.limiter = rate.NewLimiter(rate.Inf, 1)

	got, err := Locate(context.Background(), p)
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if got.Lat != 52.52 || got.Lon != 13.405 {
		t.Errorf("Locate() = %v", got)
	}
}

func TestIPProviderWithoutConsent(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	p := NewIPProvider(server.URL, false)
	_, err := Locate(context.Background(), p)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
	if called {
		t.Error("lookup must not be made without consent")
	}
}

func TestIPProviderFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer server.Close()

	p := NewIPProvider(server.URL, true)
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	if _, err := Locate(context.Background(), p); !errors.Is(err, ErrServicesDisabled) {
		t.Errorf("expected ErrServicesDisabled, got %v", err)
	}

	if _, err := Locate(context.Background(), NewIPProvider("", true)); !errors.Is(err, ErrServicesDisabled) {
		t.Errorf("empty endpoint: expected ErrServicesDisabled, got %v", err)
	}
}
