package geocoding_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/minemap/internal/geocoding"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		},
	}
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	unlimited := rate.NewLimiter(rate.Inf, 1)
	coords := models.Coordinates{Latitude: 49.9935, Longitude: 36.2304}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/reverse")
				assert.Equal(t, "49.9935", req.URL.Query().Get("lat"))
				assert.Equal(t, "36.2304", req.URL.Query().Get("lon"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t,
					"Minemap-Field-Service/1.0 (https://github.com/UnknownOlympus/minemap)",
					req.Header.Get("User-Agent"),
				)

				body := `{"display_name":"Kharkiv, Ukraine","address":{"city":"Kharkiv","state":"Kharkiv Oblast","country":"Ukraine"}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		label, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Kharkiv, Kharkiv Oblast, Ukraine", label)
	})

	t.Run("village falls back after city and town", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusOK, `{"address":{"village":"Hrabovets","country":"Ukraine"}}`), unlimited, logger,
		)

		label, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Hrabovets, Ukraine", label)
	})

	t.Run("display name when address is missing", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusOK, `{"display_name":" Black Sea "}`), unlimited, logger,
		)

		label, err := provider.ReverseGeocode(ctx, coords)

		require.NoError(t, err)
		assert.Equal(t, "Black Sea", label)
	})

	t.Run("empty response from API", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusOK, `{}`), unlimited, logger)

		label, err := provider.ReverseGeocode(ctx, coords)

		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
		assert.Empty(t, label)
	})

	t.Run("no place at coordinates", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusOK, `{"error":"Unable to geocode"}`), unlimited, logger,
		)

		_, err := provider.ReverseGeocode(ctx, coords)

		require.ErrorIs(t, err, geocoding.ErrNominatimNoPlace)
		assert.Contains(t, err.Error(), "Unable to geocode")
	})

	t.Run("HTTP error status", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(
			respond(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`), unlimited, logger,
		)

		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusOK, `invalid json`), unlimited, logger)

		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("transport error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
		}
		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)

		_, err := provider.ReverseGeocode(ctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute reverse geocoding request")
	})

	t.Run("rate limiter honours cancellation", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		require.True(t, limiter.Allow())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		provider := geocoding.NewNominatimProviderWithClient(respond(http.StatusOK, `{}`), limiter, logger)

		_, err := provider.ReverseGeocode(cctx, coords)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit exceeded")
	})
}
