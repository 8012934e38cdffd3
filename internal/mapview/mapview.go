// Package mapview holds the server-side state of the map widget: its center,
// zoom and the markers the browser should draw.
package mapview

import (
	"sync"

	"github.com/meltforce/mapty/internal/models"
)

// PopupOptions mirror the options passed to the browser map library when a
// marker's popup is bound.
type PopupOptions struct {
	MaxWidth     int  `json:"maxWidth"`
	MinWidth     int  `json:"minWidth"`
	AutoClose    bool `json:"autoClose"`
	CloseOnClick bool `json:"closeOnClick"`
}

// DefaultPopupOptions keeps every workout popup open until closed explicitly.
var DefaultPopupOptions = PopupOptions{MaxWidth: 250, MinWidth: 100}

// Marker is one workout pin.
type Marker struct {
	ID      string        `json:"id"`
	Coords  models.Coords `json:"coords"`
	Popup   string        `json:"popup"`
	Class   string        `json:"class"`
	Options PopupOptions  `json:"options"`
}

// Tiles describes the tile layer drawn under the markers.
type Tiles struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// Snapshot is a point-in-time copy of the view, safe to serialize.
type Snapshot struct {
	Ready   bool          `json:"ready"`
	Center  models.Coords `json:"center"`
	Zoom    int           `json:"zoom"`
	Tiles   Tiles         `json:"tiles"`
	Markers []Marker      `json:"markers"`
}

// View is the map collaborator driven by the controller. It is safe for
// concurrent use.
type View struct {
	mu      sync.RWMutex
	tiles   Tiles
	ready   bool
	center  models.Coords
	zoom    int
	markers []Marker
}

func New(tiles Tiles) *View {
	return &View{tiles: tiles}
}

// Init centers the map and marks it ready. Markers added before Init are kept.
func (v *View) Init(center models.Coords, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ready = true
	v.center = center
	v.zoom = zoom
}

// Ready reports whether Init has been called.
func (v *View) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ready
}

func (v *View) AddMarker(m Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers = append(v.markers, m)
}

// SetView pans to center at the given zoom.
func (v *View) SetView(center models.Coords, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	v.zoom = zoom
}

func (v *View) ClearMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers = nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	markers := make([]Marker, len(v.markers))
	copy(markers, v.markers)
	return Snapshot{
		Ready:   v.ready,
		Center:  v.center,
		Zoom:    v.zoom,
		Tiles:   v.tiles,
		Markers: markers,
	}
}
