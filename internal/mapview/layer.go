// Package mapview is the in-process map rendering layer: it places markers, hands out
// opaque handles for them and turns camera reports into viewport-idle notifications.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/UnknownOlympus/minemap/internal/models"
)

// ErrInvalidPosition is returned when a marker is placed outside valid coordinates.
var ErrInvalidPosition = errors.New("marker position is out of range")

// Marker is a marker as the client draws it.
type Marker struct {
	Handle   models.Handle      `json:"handle"`
	Title    string             `json:"title"`
	Position models.Coordinates `json:"position"`
}

// IdleListener receives the viewport center once the camera settles.
type IdleListener func(models.Coordinates)

// Layer holds the markers of one map session.
type Layer struct {
	mu        sync.RWMutex
	seq       uint64
	markers   map[models.Handle]placed
	camera    models.Coordinates
	moving    bool
	listeners []IdleListener
}

type placed struct {
	marker Marker
	order  uint64
}

// NewLayer creates an empty Layer.
func NewLayer() *Layer {
	return &Layer{markers: make(map[models.Handle]placed)}
}

// PlaceMarker adds a marker and returns its handle.
func (l *Layer) PlaceMarker(ctx context.Context, position models.Coordinates, title string) (models.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !position.Valid() {
		return "", fmt.Errorf("%w: %v", ErrInvalidPosition, position)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order := l.seq
	l.seq++
	handle := models.Handle(fmt.Sprintf("m%d", order))
	l.markers[handle] = placed{
		marker: Marker{Handle: handle, Title: title, Position: position},
		order:  order,
	}

	return handle, nil
}

// RemoveMarker takes a marker off the map. Removing an unknown handle does nothing.
func (l *Layer) RemoveMarker(handle models.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.markers, handle)
}

// Markers returns the placed markers in placement order.
func (l *Layer) Markers() []Marker {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]placed, 0, len(l.markers))
	for _, p := range l.markers {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].order < all[j].order })

	out := make([]Marker, 0, len(all))
	for _, p := range all {
		out = append(out, p.marker)
	}

	return out
}

// OnIdle registers a listener for viewport-idle events.
func (l *Layer) OnIdle(fn IdleListener) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.listeners = append(l.listeners, fn)
}

// CameraMoved records an intermediate camera frame. Listeners are not notified.
func (l *Layer) CameraMoved(center models.Coordinates) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.camera = center
	l.moving = true
}

// CameraIdle records that the camera settled on center and notifies the idle listeners
// synchronously, in registration order.
func (l *Layer) CameraIdle(center models.Coordinates) {
	l.mu.Lock()
	l.camera = center
	l.moving = false
	listeners := append([]IdleListener(nil), l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(center)
	}
}

// Camera returns the last reported camera center and whether it is still moving.
func (l *Layer) Camera() (models.Coordinates, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.camera, l.moving
}
