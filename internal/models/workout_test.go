package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func fixedFactory(t time.Time, id string) Factory {
	return Factory{
		Now:   func() time.Time { return t },
		NewID: func() string { return id },
	}
}

const testID = "0f8fad5b-d9cb-469f-a165-70867728950e"

var april14 = time.Date(2024, time.April, 14, 9, 30, 0, 0, time.UTC)

// TestRunningPace verifies pace = duration / distance for a range of inputs.
func TestRunningPace(t *testing.T) {
	cases := []struct {
		distance, duration float64
	}{
		{5, 25},
		{10, 52.5},
		{0.4, 1.7},
		{42.195, 180},
	}
	f := DefaultFactory()
	for _, tc := range cases {
		w, err := f.NewRunning(Coords{Lat: 1, Lng: 2}, tc.distance, tc.duration, 170)
		if err != nil {
			t.Fatalf("NewRunning(%v, %v): %v", tc.distance, tc.duration, err)
		}
		got, ok := w.PaceMinPerKm()
		if !ok {
			t.Fatal("PaceMinPerKm ok = false for running workout")
		}
		if want := tc.duration / tc.distance; math.Abs(got-want) > 1e-12 {
			t.Errorf("pace(%v, %v) = %v, want %v", tc.distance, tc.duration, got, want)
		}
		if _, ok := w.SpeedKmPerH(); ok {
			t.Error("SpeedKmPerH ok = true for running workout")
		}
	}
}

// TestCyclingSpeed verifies speed = distance / (duration / 60).
func TestCyclingSpeed(t *testing.T) {
	cases := []struct {
		distance, duration float64
	}{
		{27, 95},
		{100, 60},
		{3.3, 7},
	}
	f := DefaultFactory()
	for _, tc := range cases {
		w, err := f.NewCycling(Coords{}, tc.distance, tc.duration, 523)
		if err != nil {
			t.Fatalf("NewCycling(%v, %v): %v", tc.distance, tc.duration, err)
		}
		got, ok := w.SpeedKmPerH()
		if !ok {
			t.Fatal("SpeedKmPerH ok = false for cycling workout")
		}
		if want := tc.distance / (tc.duration / 60); math.Abs(got-want) > 1e-12 {
			t.Errorf("speed(%v, %v) = %v, want %v", tc.distance, tc.duration, got, want)
		}
		if m := w.Metric(); m.Name != "speed" || m.Unit != "km/h" || m.Value != got {
			t.Errorf("Metric() = %+v, want speed %v km/h", m, got)
		}
	}
}

// TestDescription verifies the "<Kind> on <Month> <day>" format.
func TestDescription(t *testing.T) {
	w, err := fixedFactory(april14, testID).NewRunning(Coords{}, 5, 25, 170)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := w.Description(), "Running on April 14"; got != want {
		t.Errorf("description = %q, want %q", got, want)
	}

	c, err := fixedFactory(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), testID).NewCycling(Coords{}, 20, 60, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Description(), "Cycling on December 1"; got != want {
		t.Errorf("description = %q, want %q", got, want)
	}
}

// TestNewRunningRejectsBadInput verifies the constructor enforces validation
// and reports it as a ValidationError.
func TestNewRunningRejectsBadInput(t *testing.T) {
	f := DefaultFactory()
	bad := [][3]float64{
		{0, 25, 170},
		{5, -1, 170},
		{5, 25, 0},
		{math.NaN(), 25, 170},
		{5, math.Inf(1), 170},
	}
	for _, in := range bad {
		_, err := f.NewRunning(Coords{}, in[0], in[1], in[2])
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("NewRunning(%v) error = %v, want *ValidationError", in, err)
			continue
		}
		if verr.UserMessage() != InputMessage {
			t.Errorf("user message = %q, want %q", verr.UserMessage(), InputMessage)
		}
	}
}

// TestNewCyclingElevation verifies that zero elevation is accepted while
// negative or non-finite elevation is rejected.
func TestNewCyclingElevation(t *testing.T) {
	f := DefaultFactory()
	if _, err := f.NewCycling(Coords{}, 10, 30, 0); err != nil {
		t.Errorf("zero elevation: unexpected error %v", err)
	}
	if _, err := f.NewCycling(Coords{}, 10, 30, -5); err == nil {
		t.Error("negative elevation: expected error")
	}
	if _, err := f.NewCycling(Coords{}, 10, 30, math.NaN()); err == nil {
		t.Error("NaN elevation: expected error")
	}
}

// TestDefaultFactoryUniqueIDs verifies rapid successive creations never share an id.
func TestDefaultFactoryUniqueIDs(t *testing.T) {
	f := DefaultFactory()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		w, err := f.NewRunning(Coords{}, 1, 5, 160)
		if err != nil {
			t.Fatal(err)
		}
		if seen[w.ID()] {
			t.Fatalf("duplicate id %s after %d workouts", w.ID(), i)
		}
		seen[w.ID()] = true
	}
}

// TestRecordRestore verifies that restoring a record yields a fully typed
// workout with recomputed description and metric.
func TestRecordRestore(t *testing.T) {
	orig, err := fixedFactory(april14, testID).NewRunning(Coords{Lat: 51.5, Lng: -0.12}, 5.2, 24, 178)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(orig.Record())
	if err != nil {
		t.Fatal(err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}

	got, err := Restore(rec)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.ID() != orig.ID() {
		t.Errorf("id = %q, want %q", got.ID(), orig.ID())
	}
	if !got.CreatedAt().Equal(orig.CreatedAt()) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt(), orig.CreatedAt())
	}
	if got.Coords() != orig.Coords() {
		t.Errorf("coords = %+v, want %+v", got.Coords(), orig.Coords())
	}
	if got.Description() != "Running on April 14" {
		t.Errorf("description = %q", got.Description())
	}
	p1, _ := orig.PaceMinPerKm()
	p2, ok := got.PaceMinPerKm()
	if !ok || p1 != p2 {
		t.Errorf("pace = %v (ok=%v), want %v", p2, ok, p1)
	}
	if c, _ := got.CadenceSpm(); c != 178 {
		t.Errorf("cadence = %v, want 178", c)
	}
}

// TestRestoreRejectsBrokenRecords verifies that persisted records missing
// required fields are refused instead of producing half-built workouts.
func TestRestoreRejectsBrokenRecords(t *testing.T) {
	cadence := 170.0
	elev := 10.0
	at := []float64{51.5, -0.12}
	cases := map[string]Record{
		"empty id":          {ID: " ", CreatedAt: april14, Kind: KindRunning, Coords: at, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"zero time":         {ID: testID, Kind: KindRunning, Coords: at, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"unknown kind":      {ID: testID, CreatedAt: april14, Kind: "swimming", Coords: at, DistanceKm: 5, DurationMin: 25},
		"missing cadence":   {ID: testID, CreatedAt: april14, Kind: KindRunning, Coords: at, DistanceKm: 5, DurationMin: 25, ElevationGainM: &elev},
		"missing gain":      {ID: testID, CreatedAt: april14, Kind: KindCycling, Coords: at, DistanceKm: 5, DurationMin: 25},
		"negative distance": {ID: testID, CreatedAt: april14, Kind: KindCycling, Coords: at, DistanceKm: -5, DurationMin: 25, ElevationGainM: &elev},
		"missing coords":    {ID: testID, CreatedAt: april14, Kind: KindRunning, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"empty coords":      {ID: testID, CreatedAt: april14, Kind: KindRunning, Coords: []float64{}, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"one coord":         {ID: testID, CreatedAt: april14, Kind: KindRunning, Coords: []float64{51.5}, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"three coords":      {ID: testID, CreatedAt: april14, Kind: KindRunning, Coords: []float64{1, 2, 3}, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"lat out of range":  {ID: testID, CreatedAt: april14, Kind: KindRunning, Coords: []float64{999, 0}, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence},
		"lng out of range":  {ID: testID, CreatedAt: april14, Kind: KindCycling, Coords: []float64{0, -181}, DistanceKm: 5, DurationMin: 25, ElevationGainM: &elev},
	}
	for name, rec := range cases {
		if _, err := Restore(rec); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// TestRestoreOpaqueID verifies ids are kept as given, UUID or not.
func TestRestoreOpaqueID(t *testing.T) {
	cadence := 170.0
	w, err := Restore(Record{ID: "1713087000123", CreatedAt: april14, Kind: KindRunning, Coords: []float64{51.5, -0.12}, DistanceKm: 5, DurationMin: 25, CadenceSpm: &cadence})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if w.ID() != "1713087000123" {
		t.Errorf("id = %q", w.ID())
	}
}

// TestParseKind verifies form values are matched case-insensitively.
func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"running", KindRunning, true},
		{" Cycling ", KindCycling, true},
		{"RUNNING", KindRunning, true},
		{"swimming", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseKind(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
