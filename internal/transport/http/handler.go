package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/UnknownOlympus/minemap/internal/capture"
	"github.com/UnknownOlympus/minemap/internal/infowindow"
	"github.com/UnknownOlympus/minemap/internal/mapview"
	"github.com/UnknownOlympus/minemap/internal/metrics"
	"github.com/UnknownOlympus/minemap/internal/models"
)

const (
	stateMoving = "moving"
	stateIdle   = "idle"

	// multipartOverhead leaves room for the form fields next to the image.
	multipartOverhead = 1 << 20
)

// Capturer runs the capture pipeline and the record mutations behind it.
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (capture.Result, error)
	SetDefused(ctx context.Context, handle models.Handle, defused bool) (models.Landmine, error)
	Remove(ctx context.Context, handle models.Handle) error
}

// MapView is the rendering layer seen by clients.
type MapView interface {
	CameraMoved(center models.Coordinates)
	CameraIdle(center models.Coordinates)
	Markers() []mapview.Marker
}

// InfoWindows builds the info window content and image of a marker.
type InfoWindows interface {
	Render(handle models.Handle) (infowindow.Payload, bool)
	Thumbnail(ctx context.Context, ref string) <-chan infowindow.Thumbnail
}

// Handler serves the marker API.
type Handler struct {
	logger   *slog.Logger
	capturer Capturer
	view     MapView
	windows  InfoWindows
	metrics  *metrics.Metrics
	maxImage int64
}

// NewHandler creates a Handler. Captured images above maxImage bytes are refused; zero disables the check.
func NewHandler(
	logger *slog.Logger,
	capturer Capturer,
	view MapView,
	windows InfoWindows,
	metrics *metrics.Metrics,
	maxImage int64,
) *Handler {
	return &Handler{
		logger:   logger,
		capturer: capturer,
		view:     view,
		windows:  windows,
		metrics:  metrics,
		maxImage: maxImage,
	}
}

// NewRouter returns a chi router with the marker API mounted at the root.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)

	return r
}

// Register registers the marker routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.RealIP)
	api.Use(middleware.Recoverer)
	api.Use(requestLogger(h.logger))
	api.Use(middleware.Timeout(60 * time.Second))

	api.Post("/viewport", h.handleViewport)
	api.Post("/captures", h.handleCapture)
	api.Get("/markers", h.handleListMarkers)
	api.Route("/markers/{handle}", func(r chi.Router) {
		r.Get("/", h.handleInfoWindow)
		r.Get("/image", h.handleImage)
		r.Put("/defused", h.handleSetDefused)
		r.Delete("/", h.handleRemove)
	})

	r.Mount("/", api)
}

type viewportRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	State     string  `json:"state"`
}

func (h *Handler) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	center := models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if !center.Valid() {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	switch req.State {
	case stateMoving:
		h.view.CameraMoved(center)
	case stateIdle:
		h.view.CameraIdle(center)
	default:
		writeError(w, http.StatusBadRequest, "state must be moving or idle")
		return
	}

	h.metrics.ViewportEvents.WithLabelValues(req.State).Inc()
	w.WriteHeader(http.StatusNoContent)
}

type captureResponse struct {
	Handle   models.Handle   `json:"handle"`
	Source   string          `json:"source"`
	Landmine models.Landmine `json:"landmine"`
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxImage > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxImage+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	if h.maxImage > 0 && header.Size > h.maxImage {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	result, err := h.capturer.Capture(ctx, capture.Request{
		Image:       file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Discoverer:  r.FormValue("discoverer"),
		Name:        r.FormValue("name"),
	})
	if err != nil {
		h.fail(ctx, w, "capture failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, captureResponse{
		Handle:   result.Handle,
		Source:   string(result.Source),
		Landmine: result.Landmine,
	})
}

func (h *Handler) handleListMarkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.view.Markers())
}

func (h *Handler) handleInfoWindow(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.windows.Render(handleParam(r))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle := handleParam(r)

	payload, ok := h.windows.Render(handle)
	if !ok {
		writeError(w, http.StatusNotFound, "marker not found")
		return
	}

	select {
	case thumb := <-h.windows.Thumbnail(ctx, payload.ImageRef):
		if thumb.Err != nil {
			h.logger.WarnContext(ctx, "Failed to load image", "handle", handle, "error", thumb.Err)
			msg := "image unavailable"
			if errors.Is(thumb.Err, infowindow.ErrImageTooLarge) {
				msg = "image too large"
			}
			writeError(w, http.StatusBadGateway, msg)
			return
		}
		w.Header().Set("Content-Type", http.DetectContentType(thumb.Data))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(thumb.Data); err != nil {
			h.logger.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	case <-ctx.Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	}
}

type defusedRequest struct {
	Defused *bool `json:"defused"`
}

func (h *Handler) handleSetDefused(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle := handleParam(r)

	var req defusedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Defused == nil {
		writeError(w, http.StatusBadRequest, "defused flag is required")
		return
	}

	if _, err := h.capturer.SetDefused(ctx, handle, *req.Defused); err != nil {
		h.fail(ctx, w, "failed to change status", err)
		return
	}

	payload, ok := h.windows.Render(handle)
	if !ok {
		// Removed concurrently.
		writeError(w, http.StatusNotFound, "marker not found")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.capturer.Remove(ctx, handleParam(r)); err != nil {
		h.fail(ctx, w, "failed to remove marker", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// fail maps service errors to status codes and logs unexpected ones.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, capture.ErrUnknownMarker):
		writeError(w, http.StatusNotFound, "marker not found")
	case errors.Is(err, capture.ErrNoImage):
		writeError(w, http.StatusBadRequest, "image is required")
	case errors.Is(err, mapview.ErrInvalidPosition):
		writeError(w, http.StatusUnprocessableEntity, "resolved position is out of range")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.WarnContext(ctx, msg, "error", err)
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.ErrorContext(ctx, msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func handleParam(r *http.Request) models.Handle {
	return models.Handle(chi.URLParam(r, "handle"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
