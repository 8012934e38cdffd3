// Package geo finds the user's position for the initial map center.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meltforce/mapty/internal/config"
	"github.com/meltforce/mapty/internal/models"
)

// ErrDenied is returned when no position is available, whether refused,
// unreachable or timed out. Requests are one-shot and never retried.
var ErrDenied = errors.New("could not get your location")

// Locator resolves the current position.
type Locator interface {
	Locate(ctx context.Context) (models.Coords, error)
}

// Static always answers with a fixed position, or always refuses.
type Static struct {
	coords models.Coords
	denied bool
}

func NewStatic(coords models.Coords) Static { return Static{coords: coords} }

// Denied returns a locator that refuses every request.
func Denied() Static { return Static{denied: true} }

func (s Static) Locate(context.Context) (models.Coords, error) {
	if s.denied {
		return models.Coords{}, ErrDenied
	}
	return s.coords, nil
}

// HTTPLocator looks up the position from an IP geolocation endpoint that
// answers with {"status":"success","lat":..,"lon":..}.
type HTTPLocator struct {
	client *http.Client
	url    string
}

func NewHTTPLocator(url string) *HTTPLocator {
	return &HTTPLocator{client: &http.Client{}, url: url}
}

type lookupResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (h *HTTPLocator) Locate(ctx context.Context) (models.Coords, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return models.Coords{}, fmt.Errorf("building lookup request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return models.Coords{}, fmt.Errorf("location lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Coords{}, fmt.Errorf("location lookup failed (status %d): %s", resp.StatusCode, body)
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coords{}, fmt.Errorf("decoding location: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return models.Coords{}, fmt.Errorf("location lookup refused: %s", out.Message)
	}
	if out.Lat == nil || out.Lon == nil {
		return models.Coords{}, errors.New("location lookup returned no coordinates")
	}
	c := models.Coords{Lat: *out.Lat, Lng: *out.Lon}
	if !valid(c) {
		return models.Coords{}, fmt.Errorf("location lookup returned out-of-range coordinates %v,%v", c.Lat, c.Lng)
	}
	return c, nil
}

func valid(c models.Coords) bool {
	return models.AllFinite(c.Lat, c.Lng) && c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Lookup runs one request bounded by timeout. Any failure is reported as
// ErrDenied wrapping the cause.
func Lookup(ctx context.Context, l Locator, timeout time.Duration) (models.Coords, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	c, err := l.Locate(ctx)
	if err == nil {
		return c, nil
	}
	if errors.Is(err, ErrDenied) {
		return models.Coords{}, err
	}
	return models.Coords{}, fmt.Errorf("%w: %w", ErrDenied, err)
}

// FromConfig builds the locator selected by cfg.Provider.
func FromConfig(cfg config.GeolocationConfig) Locator {
	switch cfg.Provider {
	case "static":
		if cfg.Lat != nil && cfg.Lng != nil {
			return NewStatic(models.Coords{Lat: *cfg.Lat, Lng: *cfg.Lng})
		}
	case "http":
		return NewHTTPLocator(cfg.URL)
	}
	return Denied()
}
