package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the workout variants.
type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// ParseKind maps a form or persisted value to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRunning:
		return KindRunning, true
	case KindCycling:
		return KindCycling, true
	}
	return "", false
}

// Title returns the capitalized kind name used in descriptions.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Icon returns the emoji shown next to a workout of this kind.
func (k Kind) Icon() string {
	if k == KindRunning {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

// Coords is a latitude/longitude pair in degrees.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Workout is one recorded exercise session. Fields are unexported so a
// workout cannot change after construction; the variant-specific extra is
// cadence for running and elevation gain for cycling.
type Workout struct {
	id          string
	createdAt   time.Time
	coords      Coords
	distanceKm  float64
	durationMin float64
	kind        Kind
	cadenceSpm  float64
	elevationM  float64
	description string
}

func (w Workout) ID() string           { return w.id }
func (w Workout) CreatedAt() time.Time { return w.createdAt }
func (w Workout) Coords() Coords       { return w.coords }
func (w Workout) DistanceKm() float64  { return w.distanceKm }
func (w Workout) DurationMin() float64 { return w.durationMin }
func (w Workout) Kind() Kind           { return w.kind }
func (w Workout) Description() string  { return w.description }

// CadenceSpm returns the running cadence in steps per minute.
func (w Workout) CadenceSpm() (float64, bool) {
	return w.cadenceSpm, w.kind == KindRunning
}

// ElevationGainM returns the cycling elevation gain in meters.
func (w Workout) ElevationGainM() (float64, bool) {
	return w.elevationM, w.kind == KindCycling
}

// PaceMinPerKm returns duration / distance for running workouts.
func (w Workout) PaceMinPerKm() (float64, bool) {
	if w.kind != KindRunning {
		return 0, false
	}
	return pace(w.distanceKm, w.durationMin), true
}

// SpeedKmPerH returns distance / hours for cycling workouts.
func (w Workout) SpeedKmPerH() (float64, bool) {
	if w.kind != KindCycling {
		return 0, false
	}
	return speed(w.distanceKm, w.durationMin), true
}

// Metric is the derived per-kind figure of a workout.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Metric returns pace for running and speed for cycling.
func (w Workout) Metric() Metric {
	switch w.kind {
	case KindRunning:
		return Metric{Name: "pace", Value: pace(w.distanceKm, w.durationMin), Unit: "min/km"}
	case KindCycling:
		return Metric{Name: "speed", Value: speed(w.distanceKm, w.durationMin), Unit: "km/h"}
	}
	return Metric{}
}

func pace(distanceKm, durationMin float64) float64 {
	return durationMin / distanceKm
}

func speed(distanceKm, durationMin float64) float64 {
	return distanceKm / (durationMin / 60)
}

// Describe formats "<Kind> on <Month> <day>" from the creation time.
func Describe(kind Kind, createdAt time.Time) string {
	return fmt.Sprintf("%s on %s %d", kind.Title(), createdAt.Month().String(), createdAt.Day())
}

// Factory builds workouts with an injectable clock and id source.
type Factory struct {
	Now   func() time.Time
	NewID func() string
}

// DefaultFactory stamps workouts with the wall clock and random UUIDs.
func DefaultFactory() Factory {
	return Factory{Now: time.Now, NewID: uuid.NewString}
}

// NewRunning validates the inputs and returns a running workout.
func (f Factory) NewRunning(coords Coords, distanceKm, durationMin, cadenceSpm float64) (Workout, error) {
	if err := ValidateRunning(distanceKm, durationMin, cadenceSpm); err != nil {
		return Workout{}, err
	}
	w := f.base(KindRunning, coords, distanceKm, durationMin)
	w.cadenceSpm = cadenceSpm
	return w, nil
}

// NewCycling validates the inputs and returns a cycling workout.
func (f Factory) NewCycling(coords Coords, distanceKm, durationMin, elevationGainM float64) (Workout, error) {
	if err := ValidateCycling(distanceKm, durationMin, elevationGainM); err != nil {
		return Workout{}, err
	}
	w := f.base(KindCycling, coords, distanceKm, durationMin)
	w.elevationM = elevationGainM
	return w, nil
}

func (f Factory) base(kind Kind, coords Coords, distanceKm, durationMin float64) Workout {
	now, newID := f.Now, f.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	createdAt := now()
	return Workout{
		id:          newID(),
		createdAt:   createdAt,
		coords:      coords,
		distanceKm:  distanceKm,
		durationMin: durationMin,
		kind:        kind,
		description: Describe(kind, createdAt),
	}
}

// Record is the persisted shape of a workout.
type Record struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	Kind           Kind      `json:"kind"`
	Coords         []float64 `json:"coords"` // [lat, lng]
	DistanceKm     float64   `json:"distanceKm"`
	DurationMin    float64   `json:"durationMin"`
	CadenceSpm     *float64  `json:"cadenceSpm,omitempty"`
	ElevationGainM *float64  `json:"elevationGainM,omitempty"`
}

// Record converts the workout to its persisted shape.
func (w Workout) Record() Record {
	r := Record{
		ID:          w.id,
		CreatedAt:   w.createdAt,
		Kind:        w.kind,
		Coords:      []float64{w.coords.Lat, w.coords.Lng},
		DistanceKm:  w.distanceKm,
		DurationMin: w.durationMin,
	}
	switch w.kind {
	case KindRunning:
		cadence := w.cadenceSpm
		r.CadenceSpm = &cadence
	case KindCycling:
		elev := w.elevationM
		r.ElevationGainM = &elev
	}
	return r
}

// Restore rebuilds a typed workout from a persisted record. The record goes
// through the same validation as fresh input and the description is
// recomputed from the stored creation time.
func Restore(r Record) (Workout, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Workout{}, errors.New("workout without id")
	}
	if r.CreatedAt.IsZero() {
		return Workout{}, fmt.Errorf("workout %s: missing createdAt", r.ID)
	}

	kind, ok := ParseKind(string(r.Kind))
	if !ok {
		return Workout{}, fmt.Errorf("workout %s: unknown kind %q", r.ID, r.Kind)
	}

	f := Factory{
		Now:   func() time.Time { return r.CreatedAt },
		NewID: func() string { return r.ID },
	}
	if len(r.Coords) != 2 {
		return Workout{}, fmt.Errorf("workout %s: coords must be [lat, lng], got %d values", r.ID, len(r.Coords))
	}
	coords := Coords{Lat: r.Coords[0], Lng: r.Coords[1]}
	if err := CheckCoords(coords); err != nil {
		return Workout{}, fmt.Errorf("workout %s: %w", r.ID, err)
	}

	switch kind {
	case KindRunning:
		if r.CadenceSpm == nil {
			return Workout{}, fmt.Errorf("workout %s: running record without cadenceSpm", r.ID)
		}
		return f.NewRunning(coords, r.DistanceKm, r.DurationMin, *r.CadenceSpm)
	default:
		if r.ElevationGainM == nil {
			return Workout{}, fmt.Errorf("workout %s: cycling record without elevationGainM", r.ID)
		}
		return f.NewCycling(coords, r.DistanceKm, r.DurationMin, *r.ElevationGainM)
	}
}
