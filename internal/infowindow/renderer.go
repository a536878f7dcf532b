package infowindow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnknownOlympus/minemap/internal/models"
)

// coordinatePrecision is the number of decimals shown for latitude and longitude.
const coordinatePrecision = 6

// ErrImageTooLarge is reported for a stored image larger than the renderer will load.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Payload is the content of a marker's info window.
type Payload struct {
	Handle      models.Handle `json:"handle"`
	Name        string        `json:"name"`
	Discoverer  string        `json:"discoverer"`
	Coordinates string        `json:"coordinates"`
	Defused     string        `json:"defused"`
	Locality    string        `json:"locality,omitempty"`
	ImageRef    string        `json:"image_ref"`
}

// Thumbnail is the asynchronously loaded image of an info window.
type Thumbnail struct {
	Data []byte
	Err  error
}

// Lookup resolves a marker handle to its landmine record.
type Lookup interface {
	Lookup(handle models.Handle) (models.Landmine, bool)
}

// ImageOpener gives read access to a stored image.
type ImageOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Renderer builds info window payloads from the marker registry. It never mutates the registry.
type Renderer struct {
	lookup   Lookup
	images   ImageOpener
	maxImage int64
}

// NewRenderer creates a Renderer. maxImage caps the thumbnail size in bytes; zero means unlimited.
func NewRenderer(lookup Lookup, images ImageOpener, maxImage int64) *Renderer {
	return &Renderer{lookup: lookup, images: images, maxImage: maxImage}
}

// Render returns the payload for handle, or false when the handle is not bound.
func (r *Renderer) Render(handle models.Handle) (Payload, bool) {
	mine, ok := r.lookup.Lookup(handle)
	if !ok {
		return Payload{}, false
	}

	return Payload{
		Handle:      handle,
		Name:        mine.Name,
		Discoverer:  mine.Discoverer,
		Coordinates: FormatCoordinates(mine.Coordinates()),
		Defused:     DefusedLabel(mine.Defused),
		Locality:    mine.Locality,
		ImageRef:    mine.ImageRef,
	}, true
}

// Thumbnail starts loading the image behind ref and delivers exactly one result on the
// returned channel.
func (r *Renderer) Thumbnail(ctx context.Context, ref string) <-chan Thumbnail {
	out := make(chan Thumbnail, 1)

	go func() {
		defer close(out)
		out <- r.loadThumbnail(ctx, ref)
	}()

	return out
}

func (r *Renderer) loadThumbnail(ctx context.Context, ref string) Thumbnail {
	img, err := r.images.Open(ctx, ref)
	if err != nil {
		return Thumbnail{Err: fmt.Errorf("failed to open image: %w", err)}
	}
	defer img.Close()

	var src io.Reader = img
	if r.maxImage > 0 {
		src = io.LimitReader(img, r.maxImage+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Thumbnail{Err: fmt.Errorf("failed to read image: %w", err)}
	}
	if r.maxImage > 0 && int64(len(data)) > r.maxImage {
		return Thumbnail{Err: fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, ref, r.maxImage)}
	}

	return Thumbnail{Data: data}
}

// FormatCoordinates renders "latitude, longitude" with fixed precision.
func FormatCoordinates(c models.Coordinates) string {
	return fmt.Sprintf("%.*f, %.*f", coordinatePrecision, c.Latitude, coordinatePrecision, c.Longitude)
}

// DefusedLabel is the human label of the defused flag.
func DefusedLabel(defused bool) string {
	if defused {
		return "Yes"
	}

	return "No"
}
