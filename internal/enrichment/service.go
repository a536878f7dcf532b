package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/minemap/internal/events"
	"github.com/UnknownOlympus/minemap/internal/geocoding"
	"github.com/UnknownOlympus/minemap/internal/metrics"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/UnknownOlympus/minemap/internal/repository"
)

const batchLimit = 100

// LiveRecords is the part of the marker registry the enricher touches.
type LiveRecords interface {
	HandleFor(recordID string) (models.Handle, bool)
	Update(handle models.Handle, fn func(models.Landmine) models.Landmine) (models.Landmine, error)
}

// Service periodically labels stored landmines with a reverse-geocoded locality
// and swaps the labelled record into the live registry.
type Service struct {
	log          *slog.Logger
	repo         repository.Interface
	provider     geocoding.Provider
	providerName string
	live         LiveRecords
	publisher    events.Publisher
	metrics      *metrics.Metrics
	numWorkers   int
	pollInterval time.Duration
}

// NewService builds an enricher running numWorkers lookups per batch, at least one.
func NewService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	live LiveRecords,
	publisher events.Publisher,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
) *Service {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Service{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		live:         live,
		publisher:    publisher,
		metrics:      metrics,
		numWorkers:   numWorkers,
		pollInterval: pollInterval,
	}
}

// Run polls for unlabelled landmines until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Enrichment service started...")

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Enrichment service stopped.")
			return
		case <-ticker.C:
			s.log.DebugContext(ctx, "Polling for landmines without locality...")
			s.processBatch(ctx)
		}
	}
}

func (s *Service) processBatch(ctx context.Context) {
	mines, err := s.repo.FetchLandminesForEnrichment(ctx, batchLimit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch landmines", "error", err)
		return
	}
	if len(mines) == 0 {
		s.log.DebugContext(ctx, "No landmines to enrich.")
		return
	}

	s.log.InfoContext(ctx, "Found landmines to enrich. Starting worker pool.",
		"jobs", len(mines),
		"num_workers", s.numWorkers,
	)

	jobs := make(chan models.Landmine, len(mines))
	var wgr sync.WaitGroup

	for i := 1; i <= s.numWorkers; i++ {
		wgr.Add(1)
		go s.worker(ctx, i, &wgr, jobs)
	}

	for _, mine := range mines {
		jobs <- mine
	}
	close(jobs)

	wgr.Wait()
	s.log.InfoContext(ctx, "Enrichment batch finished")
}

func (s *Service) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Landmine) {
	defer wg.Done()
	for mine := range jobs {
		s.metrics.ActiveWorkers.Inc()
		s.enrich(ctx, idx, mine)
		s.metrics.ActiveWorkers.Dec()
	}
}

func (s *Service) enrich(ctx context.Context, idx int, mine models.Landmine) {
	s.log.DebugContext(ctx, "Processing landmine", "worker", idx, "id", mine.ID)

	startTime := time.Now()
	locality, err := s.provider.ReverseGeocode(ctx, mine.Coordinates())
	s.metrics.RequestSeconds.WithLabelValues(s.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		s.log.ErrorContext(ctx, "Failed to reverse geocode", "worker", idx, "id", mine.ID, "error", err)
		s.metrics.EnrichmentProcessed.WithLabelValues("failure").Inc()
		s.metrics.APIErrors.Inc()

		if err = s.repo.IncrementEnrichmentFailure(ctx, mine.ID, err.Error()); err != nil {
			s.log.ErrorContext(ctx, "Could not update failure count for landmine",
				"worker", idx,
				"id", mine.ID,
				"error", err,
			)
		}
		return
	}

	if err = s.repo.UpdateLandmineLocality(ctx, mine.ID, locality); err != nil {
		s.metrics.EnrichmentProcessed.WithLabelValues("failure").Inc()
		s.log.ErrorContext(ctx, "Failed to update locality for landmine",
			"worker", idx,
			"id", mine.ID,
			"error", err,
		)
		return
	}

	s.metrics.EnrichmentProcessed.WithLabelValues("success").Inc()
	s.relabel(ctx, mine.ID, locality)
	s.log.DebugContext(ctx, "Worker successfully enriched the landmine", "worker", idx, "id", mine.ID)
}

// relabel swaps the locality into the bound record, if the landmine is on the map,
// and announces the replacement.
func (s *Service) relabel(ctx context.Context, id string, locality string) {
	handle, ok := s.live.HandleFor(id)
	if !ok {
		return
	}

	updated, err := s.live.Update(handle, func(current models.Landmine) models.Landmine {
		return current.WithLocality(locality)
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to relabel bound landmine", "handle", handle, "id", id, "error", err)
		return
	}

	if err = s.publisher.Publish(ctx, events.KindReplaced, handle, updated); err != nil {
		s.log.WarnContext(ctx, "Failed to publish event", "kind", events.KindReplaced, "handle", handle, "error", err)
	}
}
