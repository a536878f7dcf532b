package geotag

import (
	"context"
	"io"
	"log/slog"

	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/rwcarlsen/goexif/exif"
)

// Source tells where a resolved coordinate came from.
type Source string

const (
	// SourceEXIF means the coordinate was read from the photo's GPS tags.
	SourceEXIF Source = "exif"
	// SourceViewport means the photo had no usable GPS tags and the viewport center was used.
	SourceViewport Source = "viewport"
)

// Resolution is the outcome of resolving the position of a captured image.
type Resolution struct {
	Coordinates models.Coordinates
	Source      Source
}

// ImageOpener gives read access to a stored image by its reference.
type ImageOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// FallbackSource returns the current fallback coordinate.
type FallbackSource interface {
	Current() models.Coordinates
}

// Resolver determines the best-known position of a captured image.
type Resolver struct {
	opener   ImageOpener
	fallback FallbackSource
	log      *slog.Logger
}

// NewResolver creates a Resolver reading images through opener and falling back to fallback.
func NewResolver(opener ImageOpener, fallback FallbackSource, log *slog.Logger) *Resolver {
	return &Resolver{opener: opener, fallback: fallback, log: log}
}

// Resolve returns the embedded GPS position of the image behind ref when present and valid,
// and the fallback coordinate otherwise. A missing or unreadable image is not an error.
func (r *Resolver) Resolve(ctx context.Context, ref string) Resolution {
	img, err := r.opener.Open(ctx, ref)
	if err != nil {
		r.log.DebugContext(ctx, "Image could not be opened, using viewport fallback", "ref", ref, "error", err)
		return r.viewport()
	}
	defer img.Close()

	return r.ResolveFrom(ctx, img)
}

// ResolveFrom is Resolve for a caller that already holds the image bytes.
func (r *Resolver) ResolveFrom(ctx context.Context, img io.Reader) Resolution {
	coords, ok := readGPS(img)
	if !ok {
		r.log.DebugContext(ctx, "No usable GPS metadata, using viewport fallback")
		return r.viewport()
	}

	r.log.DebugContext(ctx, "Resolved position from GPS metadata", "lat", coords.Latitude, "lon", coords.Longitude)
	return Resolution{Coordinates: coords, Source: SourceEXIF}
}

// viewport reads the fallback at call time, so the latest delivered idle event wins.
func (r *Resolver) viewport() Resolution {
	return Resolution{Coordinates: r.fallback.Current(), Source: SourceViewport}
}

func readGPS(img io.Reader) (models.Coordinates, bool) {
	meta, err := exif.Decode(img)
	if err != nil && (meta == nil || exif.IsCriticalError(err)) {
		return models.Coordinates{}, false
	}

	lat, lon, err := meta.LatLong()
	if err != nil {
		return models.Coordinates{}, false
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return models.Coordinates{}, false
	}

	return coords, true
}
