package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Captures       *prometheus.CounterVec
	MarkersBound   prometheus.Gauge
	ViewportEvents *prometheus.CounterVec

	EnrichmentProcessed *prometheus.CounterVec
	APIErrors           prometheus.Counter
	RequestSeconds      *prometheus.HistogramVec
	ActiveWorkers       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Captures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "minemap_captures_total",
			Help: "Total number of landmine captures by location source and outcome.",
		}, []string{"source", "status"}),
		MarkersBound: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "minemap_markers_bound",
			Help: "Current number of markers bound to a landmine record.",
		}),
		ViewportEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "minemap_viewport_events_total",
			Help: "Total number of camera events received from map clients.",
		}, []string{"state"}),
		EnrichmentProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "minemap_enrichment_processed_total",
			Help: "Total number of landmines processed by the locality enrichment workers.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "minemap_geocoding_api_errors_total",
			Help: "Total number of errors received from the reverse geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minemap_geocoding_request_duration_seconds",
			Help:    "Duration of requests to the reverse geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "minemap_enrichment_active_workers",
			Help: "Current number of active workers enriching landmines.",
		}),
	}
}
