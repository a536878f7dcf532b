package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/minemap/internal/capture"
	"github.com/UnknownOlympus/minemap/internal/config"
	"github.com/UnknownOlympus/minemap/internal/enrichment"
	"github.com/UnknownOlympus/minemap/internal/events"
	"github.com/UnknownOlympus/minemap/internal/fallback"
	"github.com/UnknownOlympus/minemap/internal/geocoding"
	"github.com/UnknownOlympus/minemap/internal/geotag"
	"github.com/UnknownOlympus/minemap/internal/infowindow"
	"github.com/UnknownOlympus/minemap/internal/mapview"
	"github.com/UnknownOlympus/minemap/internal/metrics"
	"github.com/UnknownOlympus/minemap/internal/registry"
	"github.com/UnknownOlympus/minemap/internal/repository"
	"github.com/UnknownOlympus/minemap/internal/storage"
	httptransport "github.com/UnknownOlympus/minemap/internal/transport/http"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// imageStore is satisfied by both the S3 and the local image stores.
type imageStore interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	repo := repository.NewRepository(dtb, logger)
	if err = repo.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	images, err := setupImageStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}

	publisher, closePublisher := setupPublisher(cfg, logger)
	defer closePublisher()

	// The map session: rendering layer, fallback location and the marker registry.
	layer := mapview.NewLayer()
	lastIdle := fallback.NewProvider()
	layer.OnIdle(lastIdle.OnViewportIdle)
	markers := registry.New()

	resolver := geotag.NewResolver(images, lastIdle, logger)
	renderer := infowindow.NewRenderer(markers, images, cfg.MaxImageBytes)
	captures := capture.NewService(logger, images, resolver, layer, markers, repo, publisher, appMetrics)

	restored, err := captures.Restore(ctx)
	if err != nil {
		log.Fatalf("Failed to restore landmines: %v", err)
	}
	logger.InfoContext(ctx, "Map session prepared", "markers", restored)

	// Create reverse geocoding provider using factory pattern based on configuration.
	// Google shares a 50 rps budget across workers; Nominatim keeps its own 1 rps default.
	rateLimit := 0
	if geocoding.ProviderType(cfg.ProviderType) == geocoding.ProviderTypeGoogle {
		rateLimit = max(50/max(cfg.Workers, 1), 1)
	}
	providerConfig := geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: rateLimit,
		Logger:    logger,
	}

	geoProvider, err := geocoding.NewProvider(providerConfig)
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}

	if cfg.GeocodeCache != "" {
		cached, errCache := geocoding.NewCachedProvider(geoProvider, cfg.GeocodeCache, logger)
		if errCache != nil {
			log.Fatalf("Failed to open geocoding cache: %v", errCache)
		}
		defer cached.Close()
		geoProvider = cached
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType, "cache", cfg.GeocodeCache)

	enricher := enrichment.NewService(
		logger,
		repo,
		geoProvider,
		cfg.ProviderType, // Provider name for metrics
		markers,
		publisher,
		appMetrics,
		cfg.Workers,
		cfg.Interval,
	)

	handler := httptransport.NewHandler(logger, captures, layer, renderer, appMetrics, cfg.MaxImageBytes)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, dtb, cfg.Port)

	go enricher.Run(ctx)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.InfoContext(ctx, "Starting API server", "port", cfg.HTTPPort)
		if errServe := apiServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "API server failed", "error", errServe)
			stop()
		}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = apiServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "API server shutdown failed", "error", err)
	}

	// Log graceful shutdown completion.
	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// setupImageStore returns the MinIO bucket when an endpoint is configured and a local
// directory otherwise.
func setupImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imageStore, error) {
	if cfg.Storage.Endpoint == "" {
		logger.WarnContext(ctx, "MINIO_ENDPOINT is not set, keeping images on local disk", "dir", cfg.ImageDir)
		local, err := storage.NewLocalStore(cfg.ImageDir, logger)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	client, err := storage.NewMinioClient(
		cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL,
	)
	if err != nil {
		return nil, err
	}

	store := storage.NewS3Store(client, cfg.Storage.Bucket, logger)
	if err = store.EnsureBucket(ctx, ""); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Object storage initialized", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	return store, nil
}

// setupPublisher returns a Kafka publisher, or one that drops events when no brokers are set.
func setupPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("KAFKA_BROKERS is not set, marker events are discarded")
		return events.Discard{}, func() {}
	}

	publisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close Kafka writer", "error", err)
		}
	}
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping)
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := dtb.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
