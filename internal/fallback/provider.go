// Package fallback keeps the last stable map viewport center, used as the position of a
// capture whose photo carries no usable GPS metadata.
package fallback

import (
	"sync/atomic"

	"github.com/UnknownOlympus/minemap/internal/models"
)

// Provider is a single-slot, last-write-wins store for the viewport center.
// It is safe for concurrent use.
type Provider struct {
	slot atomic.Pointer[models.Coordinates]
}

// NewProvider returns a Provider holding no position; Current reports models.Sentinel until
// the first idle notification arrives.
func NewProvider() *Provider {
	return &Provider{}
}

// OnViewportIdle records the center of a settled viewport. Invalid coordinates are dropped
// so a broken renderer event cannot poison the fallback.
func (p *Provider) OnViewportIdle(coords models.Coordinates) {
	if !coords.Valid() {
		return
	}
	p.slot.Store(&coords)
}

// Current returns the most recently recorded viewport center, or models.Sentinel.
func (p *Provider) Current() models.Coordinates {
	if c := p.slot.Load(); c != nil {
		return *c
	}

	return models.Sentinel
}

// Known reports whether the map has reported at least one idle position.
func (p *Provider) Known() bool {
	return p.slot.Load() != nil
}
