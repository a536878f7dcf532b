package geocoding

import (
	"context"

	"github.com/UnknownOlympus/minemap/internal/models"
)

// Provider is an interface that defines a method for reverse geocoding a point.
// The ReverseGeocode method takes a context and coordinates as input,
// and returns a human-readable place label and an error if any occurs.
type Provider interface {
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error)
}
