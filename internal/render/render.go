// Package render turns workouts into the popup text, list items and HTML
// fragment shown in the browser. Rounding happens here and nowhere else.
package render

import (
	"html/template"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/meltforce/mapty/internal/mapview"
	"github.com/meltforce/mapty/internal/models"
)

// Detail is one icon/value/unit cell of a list item.
type Detail struct {
	Icon  string `json:"icon"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Item is the list representation of a workout.
type Item struct {
	ID          string        `json:"id"`
	Kind        models.Kind   `json:"kind"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	Coords      models.Coords `json:"coords"`
	Details     []Detail      `json:"details"`
}

// Popup returns the marker popup text, "<icon> <description>".
func Popup(w models.Workout) string {
	return w.Kind().Icon() + " " + w.Description()
}

// Marker builds the map pin for a workout.
func Marker(w models.Workout) mapview.Marker {
	return mapview.Marker{
		ID:      w.ID(),
		Coords:  w.Coords(),
		Popup:   Popup(w),
		Class:   string(w.Kind()) + "-popup",
		Options: mapview.DefaultPopupOptions,
	}
}

func NewItem(w models.Workout) Item {
	details := []Detail{
		{Icon: w.Kind().Icon(), Value: plain(w.DistanceKm()), Unit: "km"},
		{Icon: "⏱", Value: plain(w.DurationMin()), Unit: "min"},
	}
	switch w.Kind() {
	case models.KindRunning:
		pace, _ := w.PaceMinPerKm()
		cadence, _ := w.CadenceSpm()
		details = append(details,
			Detail{Icon: "⚡️", Value: oneDecimal(pace), Unit: "min/km"},
			Detail{Icon: "🦶🏼", Value: plain(cadence), Unit: "spm"},
		)
	case models.KindCycling:
		speed, _ := w.SpeedKmPerH()
		elevation, _ := w.ElevationGainM()
		details = append(details,
			Detail{Icon: "⚡️", Value: oneDecimal(speed), Unit: "km/h"},
			Detail{Icon: "⛰", Value: plain(elevation), Unit: "m"},
		)
	}
	return Item{
		ID:          w.ID(),
		Kind:        w.Kind(),
		Description: w.Description(),
		CreatedAt:   w.CreatedAt(),
		Coords:      w.Coords(),
		Details:     details,
	}
}

// Items renders workouts stored oldest first as a list with the newest on top.
func Items(workouts []models.Workout) []Item {
	items := make([]Item, 0, len(workouts))
	for _, w := range slices.Backward(workouts) {
		items = append(items, NewItem(w))
	}
	return items
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

var listTmpl = template.Must(template.New("workouts").Parse(`{{range .}}<li class="workout workout--{{.Kind}}" data-id="{{.ID}}">
  <h2 class="workout__title">{{.Description}}</h2>
{{- range .Details}}
  <div class="workout__details">
    <span class="workout__icon">{{.Icon}}</span>
    <span class="workout__value">{{.Value}}</span>
    <span class="workout__unit">{{.Unit}}</span>
  </div>
{{- end}}
</li>
{{end}}`))

// Fragment writes the <li> elements for items, in the order given.
func Fragment(w io.Writer, items []Item) error {
	return listTmpl.Execute(w, items)
}
