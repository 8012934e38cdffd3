package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/mapty/internal/models"
)

func fixedFactory(month time.Month, day int) models.Factory {
	return models.Factory{Now: func() time.Time { return time.Date(2024, month, day, 9, 0, 0, 0, time.UTC) }}
}

// TestPopupAndMarker verifies popup text, class and options.
func TestPopupAndMarker(t *testing.T) {
	w, err := fixedFactory(time.April, 14).NewRunning(models.Coords{Lat: 1, Lng: 2}, 5.2, 24, 178)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Popup(w), "🏃‍♂️ Running on April 14"; got != want {
		t.Errorf("Popup = %q, want %q", got, want)
	}
	m := Marker(w)
	if m.Class != "running-popup" || m.ID != w.ID() || m.Coords != w.Coords() {
		t.Errorf("Marker = %+v", m)
	}
	if m.Options.MaxWidth != 250 || m.Options.MinWidth != 100 || m.Options.AutoClose || m.Options.CloseOnClick {
		t.Errorf("options = %+v", m.Options)
	}
}

// TestNewItemRunning verifies pace is rounded to one decimal and raw inputs are not.
func TestNewItemRunning(t *testing.T) {
	w, _ := fixedFactory(time.April, 14).NewRunning(models.Coords{}, 5.2, 24, 178)
	item := NewItem(w)
	want := []Detail{
		{Icon: "🏃‍♂️", Value: "5.2", Unit: "km"},
		{Icon: "⏱", Value: "24", Unit: "min"},
		{Icon: "⚡️", Value: "4.6", Unit: "min/km"},
		{Icon: "🦶🏼", Value: "178", Unit: "spm"},
	}
	if len(item.Details) != len(want) {
		t.Fatalf("details = %+v", item.Details)
	}
	for i := range want {
		if item.Details[i] != want[i] {
			t.Errorf("detail %d = %+v, want %+v", i, item.Details[i], want[i])
		}
	}
}

// TestNewItemCycling verifies speed rounding and elevation units.
func TestNewItemCycling(t *testing.T) {
	w, _ := fixedFactory(time.December, 1).NewCycling(models.Coords{}, 27, 95, 523)
	item := NewItem(w)
	if item.Description != "Cycling on December 1" {
		t.Errorf("description = %q", item.Description)
	}
	if d := item.Details[2]; d.Value != "17.1" || d.Unit != "km/h" {
		t.Errorf("speed detail = %+v, want 17.1 km/h", d)
	}
	if d := item.Details[3]; d.Value != "523" || d.Unit != "m" {
		t.Errorf("elevation detail = %+v, want 523 m", d)
	}
}

// TestItemsNewestFirst verifies the list reverses storage order.
func TestItemsNewestFirst(t *testing.T) {
	a, _ := fixedFactory(time.April, 1).NewRunning(models.Coords{}, 5, 25, 170)
	b, _ := fixedFactory(time.April, 2).NewCycling(models.Coords{}, 20, 60, 0)
	c, _ := fixedFactory(time.April, 3).NewRunning(models.Coords{}, 8, 40, 165)

	items := Items([]models.Workout{a, b, c})
	if len(items) != 3 || items[0].ID != c.ID() || items[1].ID != b.ID() || items[2].ID != a.ID() {
		t.Errorf("order = %v", []string{items[0].ID, items[1].ID, items[2].ID})
	}
	if len(Items(nil)) != 0 {
		t.Error("Items(nil) not empty")
	}
}

// TestFragment verifies the HTML list markup.
func TestFragment(t *testing.T) {
	w, _ := fixedFactory(time.April, 14).NewRunning(models.Coords{}, 5.2, 24, 178)
	var buf bytes.Buffer
	if err := Fragment(&buf, Items([]models.Workout{w})); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{
		`class="workout workout--running"`,
		`data-id="` + w.ID() + `"`,
		`<h2 class="workout__title">Running on April 14</h2>`,
		`<span class="workout__value">4.6</span>`,
		`<span class="workout__unit">spm</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("fragment missing %q:\n%s", want, html)
		}
	}
}
