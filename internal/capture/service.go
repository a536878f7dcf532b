package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/minemap/internal/events"
	"github.com/UnknownOlympus/minemap/internal/geotag"
	"github.com/UnknownOlympus/minemap/internal/metrics"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/UnknownOlympus/minemap/internal/registry"
	"github.com/UnknownOlympus/minemap/internal/repository"
)

var (
	ErrUnknownMarker = errors.New("marker is not bound to a landmine")
	ErrNoImage       = errors.New("capture has no image")
)

// ImageStore keeps the photographs that back landmine records.
type ImageStore interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

// Resolver derives a capture position from the EXIF data of a stored image.
type Resolver interface {
	Resolve(ctx context.Context, ref string) geotag.Resolution
}

// MapLayer places and removes markers on the map.
type MapLayer interface {
	PlaceMarker(ctx context.Context, position models.Coordinates, title string) (models.Handle, error)
	RemoveMarker(handle models.Handle)
}

// Registry binds marker handles to landmine records.
type Registry interface {
	Bind(handle models.Handle, rec models.Landmine) (models.Landmine, error)
	Lookup(handle models.Handle) (models.Landmine, bool)
	Update(handle models.Handle, fn func(models.Landmine) models.Landmine) (models.Landmine, error)
	Unbind(handle models.Handle) (models.Landmine, bool)
	Len() int
}

// Request is one completed capture handed over by a client.
type Request struct {
	Image       io.Reader
	Size        int64
	ContentType string
	Discoverer  string
	Name        string
}

// Result describes a landmine that was bound to a new marker.
type Result struct {
	Handle   models.Handle
	Landmine models.Landmine
	Source   geotag.Source
}

// Service composes the capture pipeline: store, resolve, place, bind, persist, publish.
type Service struct {
	log       *slog.Logger
	store     ImageStore
	resolver  Resolver
	layer     MapLayer
	registry  Registry
	repo      repository.Interface
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService wires a capture service. The registry must be shared with every reader of the map.
func NewService(
	log *slog.Logger,
	store ImageStore,
	resolver Resolver,
	layer MapLayer,
	registry Registry,
	repo repository.Interface,
	publisher events.Publisher,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		log:       log,
		store:     store,
		resolver:  resolver,
		layer:     layer,
		registry:  registry,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Capture turns a photographed landmine into a bound, persisted marker.
// Nothing is bound when ctx is cancelled before the marker is placed, and a failed
// write-through removes both the binding and the marker again.
func (s *Service) Capture(ctx context.Context, req Request) (Result, error) {
	if req.Image == nil {
		return Result{}, ErrNoImage
	}

	ref, err := s.store.Put(ctx, req.Image, req.Size, req.ContentType)
	if err != nil {
		s.metrics.Captures.WithLabelValues("none", "failure").Inc()
		return Result{}, fmt.Errorf("failed to store image: %w", err)
	}

	resolution := s.resolver.Resolve(ctx, ref)
	source := string(resolution.Source)

	capturedAt := s.now().UTC()
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Landmine %d", capturedAt.UnixMilli())
	}
	mine := models.NewLandmine(name, req.Discoverer, resolution.Coordinates, ref, capturedAt)

	if err = ctx.Err(); err != nil {
		s.metrics.Captures.WithLabelValues(source, "cancelled").Inc()
		return Result{}, fmt.Errorf("capture abandoned: %w", err)
	}

	handle, err := s.layer.PlaceMarker(ctx, resolution.Coordinates, mine.Name)
	if err != nil {
		s.metrics.Captures.WithLabelValues(source, "failure").Inc()
		return Result{}, fmt.Errorf("failed to place marker: %w", err)
	}

	bound, err := s.registry.Bind(handle, mine)
	if err != nil {
		s.layer.RemoveMarker(handle)
		s.metrics.Captures.WithLabelValues(source, "failure").Inc()
		return Result{}, fmt.Errorf("failed to bind marker: %w", err)
	}

	if err = s.repo.SaveLandmine(ctx, bound); err != nil {
		s.registry.Unbind(handle)
		s.layer.RemoveMarker(handle)
		s.metrics.Captures.WithLabelValues(source, "failure").Inc()
		return Result{}, fmt.Errorf("failed to persist landmine: %w", err)
	}

	s.metrics.Captures.WithLabelValues(source, "success").Inc()
	s.metrics.MarkersBound.Set(float64(s.registry.Len()))
	s.log.InfoContext(ctx, "Landmine captured", "handle", handle, "id", bound.ID, "source", source)
	s.publish(ctx, events.KindBound, handle, bound)

	return Result{Handle: handle, Landmine: bound, Source: resolution.Source}, nil
}

// SetDefused replaces the record behind handle with a copy carrying the new status.
// The marker itself is left untouched.
func (s *Service) SetDefused(ctx context.Context, handle models.Handle, defused bool) (models.Landmine, error) {
	var previous bool
	updated, err := s.registry.Update(handle, func(current models.Landmine) models.Landmine {
		previous = current.Defused
		return current.WithDefused(defused)
	})
	if errors.Is(err, registry.ErrNotBound) {
		return models.Landmine{}, ErrUnknownMarker
	}
	if err != nil {
		return models.Landmine{}, fmt.Errorf("failed to replace landmine: %w", err)
	}

	if err = s.repo.UpdateLandmine(ctx, updated); err != nil {
		// Only the status is reverted; other fields may have changed in the meantime.
		_, errBack := s.registry.Update(handle, func(current models.Landmine) models.Landmine {
			return current.WithDefused(previous)
		})
		if errBack != nil {
			s.log.ErrorContext(ctx, "Failed to restore landmine after update error", "handle", handle, "error", errBack)
		}
		return models.Landmine{}, fmt.Errorf("failed to persist landmine: %w", err)
	}

	s.log.InfoContext(ctx, "Landmine status changed", "handle", handle, "id", updated.ID, "defused", defused)
	s.publish(ctx, events.KindReplaced, handle, updated)

	return updated, nil
}

// Remove deletes the landmine behind handle and takes its marker off the map.
func (s *Service) Remove(ctx context.Context, handle models.Handle) error {
	current, ok := s.registry.Lookup(handle)
	if !ok {
		return ErrUnknownMarker
	}

	if err := s.repo.DeleteLandmine(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to delete landmine: %w", err)
	}

	removed, ok := s.registry.Unbind(handle)
	if !ok {
		// A concurrent Remove won the race.
		return nil
	}
	s.layer.RemoveMarker(handle)
	s.metrics.MarkersBound.Set(float64(s.registry.Len()))

	s.log.InfoContext(ctx, "Landmine removed", "handle", handle, "id", removed.ID)
	s.publish(ctx, events.KindUnbound, handle, removed)

	return nil
}

// Restore places a marker for every persisted landmine. It is meant to run once at
// startup, before clients connect.
func (s *Service) Restore(ctx context.Context) (int, error) {
	mines, err := s.repo.ListLandmines(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list landmines: %w", err)
	}

	restored := 0
	for _, mine := range mines {
		handle, errPlace := s.layer.PlaceMarker(ctx, mine.Coordinates(), mine.Name)
		if errPlace != nil {
			s.log.WarnContext(ctx, "Skipping landmine that cannot be placed", "id", mine.ID, "error", errPlace)
			continue
		}
		if _, errBind := s.registry.Bind(handle, mine); errBind != nil {
			s.layer.RemoveMarker(handle)
			s.log.WarnContext(ctx, "Skipping landmine that cannot be bound", "id", mine.ID, "error", errBind)
			continue
		}
		restored++
	}

	s.metrics.MarkersBound.Set(float64(s.registry.Len()))
	s.log.InfoContext(ctx, "Landmines restored", "count", restored, "stored", len(mines))

	return restored, nil
}

func (s *Service) publish(ctx context.Context, kind events.Kind, handle models.Handle, mine models.Landmine) {
	if err := s.publisher.Publish(ctx, kind, handle, mine); err != nil {
		s.log.WarnContext(ctx, "Failed to publish event", "kind", kind, "handle", handle, "error", err)
	}
}
