// Package app is the controller tying the workout store, the map and the
// position lookup together. Every operation runs under one mutex, so an
// App can be shared by HTTP and MCP handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meltforce/mapty/internal/geo"
	"github.com/meltforce/mapty/internal/mapview"
	"github.com/meltforce/mapty/internal/models"
	"github.com/meltforce/mapty/internal/observability"
	"github.com/meltforce/mapty/internal/render"
	"github.com/meltforce/mapty/internal/storage"
)

var (
	ErrNoLocation     = errors.New("no map location selected")
	ErrMapUnavailable = errors.New("map unavailable without a location")
	ErrNotFound       = errors.New("workout not found")
)

// NoticeNoLocation is shown when the start-up position lookup fails.
const NoticeNoLocation = "Could not get your location"

// Map is the map widget the controller drives.
type Map interface {
	Init(center models.Coords, zoom int)
	AddMarker(m mapview.Marker)
	SetView(center models.Coords, zoom int)
	ClearMarkers()
}

// FormInput carries the raw form values. Cadence is read for running and
// Elevation for cycling; the other is ignored.
type FormInput struct {
	Type      string `json:"type"`
	Distance  string `json:"distance"`
	Duration  string `json:"duration"`
	Cadence   string `json:"cadence"`
	Elevation string `json:"elevation"`
}

// State is the UI-facing view of the controller.
type State struct {
	MapReady bool           `json:"mapReady"`
	Notice   string         `json:"notice,omitempty"`
	FormOpen bool           `json:"formOpen"`
	Pending  *models.Coords `json:"pending,omitempty"`
	Zoom     int            `json:"zoom"`
	Count    int            `json:"count"`
}

// Options configures New. Zero values fall back to defaults.
type Options struct {
	Zoom       int
	GeoTimeout time.Duration
	Factory    models.Factory
}

type App struct {
	mu      sync.Mutex
	store   *storage.Store
	m       Map
	locator geo.Locator
	factory models.Factory
	log     *slog.Logger

	zoom       int
	geoTimeout time.Duration
	mapReady   bool
	notice     string
	pending    *models.Coords
}

func New(store *storage.Store, m Map, locator geo.Locator, opts Options, log *slog.Logger) *App {
	if opts.Zoom == 0 {
		opts.Zoom = 13
	}
	if opts.GeoTimeout == 0 {
		opts.GeoTimeout = 10 * time.Second
	}
	if opts.Factory.Now == nil && opts.Factory.NewID == nil {
		opts.Factory = models.DefaultFactory()
	}
	return &App{
		store:      store,
		m:          m,
		locator:    locator,
		factory:    opts.Factory,
		log:        log,
		zoom:       opts.Zoom,
		geoTimeout: opts.GeoTimeout,
	}
}

// Start restores persisted workouts and centers the map on the user's
// position. A corrupt record is logged and ignored. A failed lookup leaves
// the map disabled with a notice; the list stays usable either way.
func (a *App) Start(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	start := time.Now()
	center, err := geo.Lookup(ctx, a.locator, a.geoTimeout)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		observability.RecordGeolocation("denied", time.Since(start))
		a.log.Warn("position lookup failed, map disabled", "error", err)
		a.notice = NoticeNoLocation
		return nil
	}
	observability.RecordGeolocation("ok", time.Since(start))

	a.mapReady = true
	a.notice = ""
	a.m.Init(center, a.zoom)
	a.syncMarkersLocked()
	a.log.Info("map ready", "lat", center.Lat, "lng", center.Lng, "markers", a.store.Len())
	return nil
}

func (a *App) restore(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.store.Restore(ctx)
	var corrupt *storage.CorruptStateError
	switch {
	case errors.As(err, &corrupt):
		observability.RecordRestoreCorrupt()
		a.log.Warn("ignoring corrupt persisted workouts", "error", err)
	case err != nil:
		return fmt.Errorf("restoring workouts: %w", err)
	}
	observability.RecordStored(a.store.Len())
	a.log.Info("workouts restored", "count", a.store.Len())
	return nil
}

// Click records where the map was clicked and opens the form.
func (a *App) Click(coords models.Coords) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.mapReady {
		return ErrMapUnavailable
	}
	if err := models.CheckCoords(coords); err != nil {
		return err
	}
	a.pending = &coords
	return nil
}

// Submit creates a workout at the last clicked location. On any failure the
// store is unchanged and the form stays open.
func (a *App) Submit(ctx context.Context, in FormInput) (models.Workout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return models.Workout{}, ErrNoLocation
	}
	w, err := a.record(ctx, *a.pending, in)
	if err != nil {
		return models.Workout{}, err
	}
	a.pending = nil
	return w, nil
}

// Record creates a workout at explicit coordinates without a map click.
func (a *App) Record(ctx context.Context, coords models.Coords, in FormInput) (models.Workout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := models.CheckCoords(coords); err != nil {
		return models.Workout{}, err
	}
	return a.record(ctx, coords, in)
}

func (a *App) record(ctx context.Context, coords models.Coords, in FormInput) (models.Workout, error) {
	kind, ok := models.ParseKind(in.Type)
	if !ok {
		observability.RecordValidationFailure("")
		return models.Workout{}, &models.ValidationError{Reason: fmt.Sprintf("unknown workout type %q", in.Type)}
	}

	distance, duration := parseNumber(in.Distance), parseNumber(in.Duration)
	var w models.Workout
	var err error
	switch kind {
	case models.KindRunning:
		w, err = a.factory.NewRunning(coords, distance, duration, parseNumber(in.Cadence))
	case models.KindCycling:
		w, err = a.factory.NewCycling(coords, distance, duration, parseNumber(in.Elevation))
	}
	if err != nil {
		observability.RecordValidationFailure(string(kind))
		return models.Workout{}, err
	}

	if err := a.store.AddAndPersist(ctx, w); err != nil {
		observability.RecordPersistFailure()
		a.log.Error("saving workout", "id", w.ID(), "error", err)
		return models.Workout{}, fmt.Errorf("saving workout: %w", err)
	}
	if a.mapReady {
		a.syncMarkersLocked()
	}
	observability.RecordWorkoutCreated(string(kind), a.store.Len())
	a.log.Info("workout recorded", "id", w.ID(), "kind", kind, "description", w.Description())
	return w, nil
}

// syncMarkersLocked redraws one marker per stored workout. Saving can pull
// in workouts written by another process, so markers are rebuilt from the
// store rather than appended.
func (a *App) syncMarkersLocked() {
	a.m.ClearMarkers()
	for w := range a.store.All() {
		a.m.AddMarker(render.Marker(w))
	}
}

// Focus pans the map to the workout with the given id.
func (a *App) Focus(id string) (models.Workout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.store.FindByID(id)
	if !ok {
		return models.Workout{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !a.mapReady {
		return models.Workout{}, ErrMapUnavailable
	}
	a.m.SetView(w.Coords(), a.zoom)
	return w, nil
}

// Reset deletes every workout, persisted state included.
func (a *App) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("resetting workouts: %w", err)
	}
	a.m.ClearMarkers()
	a.pending = nil
	observability.RecordStored(0)
	a.log.Info("workouts reset")
	return nil
}

// Workouts returns the stored workouts oldest first.
func (a *App) Workouts() []models.Workout {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.List()
}

func (a *App) Workout(id string) (models.Workout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.store.FindByID(id)
	if !ok {
		return models.Workout{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w, nil
}

func (a *App) Summary() models.Summary {
	return models.Summarize(a.Workouts())
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := State{
		MapReady: a.mapReady,
		Notice:   a.notice,
		FormOpen: a.pending != nil,
		Zoom:     a.zoom,
		Count:    a.store.Len(),
	}
	if a.pending != nil {
		p := *a.pending
		st.Pending = &p
	}
	return st
}

// parseNumber reads a form value; anything unparsable becomes NaN so the
// validator rejects it.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
