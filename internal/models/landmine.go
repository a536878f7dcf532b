package models

import (
	"strings"
	"time"
)

// AnonymousDiscoverer is recorded when the discoverer leaves the name blank.
const AnonymousDiscoverer = "Anonymous"

// Handle is the opaque identifier the map layer returns for a placed marker.
type Handle string

// Landmine is an immutable description of one discovered landmine.
// Use the With* helpers to derive a changed copy.
type Landmine struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Discoverer string    `json:"discoverer"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	Defused    bool      `json:"defused"`
	ImageRef   string    `json:"image_ref"`
	Locality   string    `json:"locality,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewLandmine builds a record without an identifier; the marker registry assigns one on bind.
func NewLandmine(name, discoverer string, coords Coordinates, imageRef string, capturedAt time.Time) Landmine {
	return Landmine{
		Name:       name,
		Discoverer: NormalizeDiscoverer(discoverer),
		Latitude:   coords.Latitude,
		Longitude:  coords.Longitude,
		ImageRef:   imageRef,
		CapturedAt: capturedAt,
	}
}

// NormalizeDiscoverer trims the free-text name and substitutes AnonymousDiscoverer for blank input.
func NormalizeDiscoverer(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousDiscoverer
	}

	return name
}

// Coordinates returns the position of the landmine.
func (l Landmine) Coordinates() Coordinates {
	return Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// WithID returns a copy carrying the given identifier.
func (l Landmine) WithID(id string) Landmine {
	l.ID = id
	return l
}

// WithDefused returns a copy with the defused flag set.
func (l Landmine) WithDefused(defused bool) Landmine {
	l.Defused = defused
	return l
}

// WithLocality returns a copy carrying a reverse-geocoded place label.
func (l Landmine) WithLocality(locality string) Landmine {
	l.Locality = locality
	return l
}
