package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/minemap/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider resolves coordinates to addresses with the Google Maps API.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// ReverseGeocode returns the formatted address of the first Google Maps result for coords.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coords.Latitude, "lon", coords.Longitude)

	req := maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude}}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode coordinates: %w", err)
	}

	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", ErrEmptyResponse
	}

	return results[0].FormattedAddress, nil
}
