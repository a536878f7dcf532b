package geocoding_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/UnknownOlympus/minemap/internal/geocoding"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider returns a fixed label and counts the calls it receives.
type countingProvider struct {
	label string
	err   error
	calls int
}

func (c *countingProvider) ReverseGeocode(_ context.Context, _ models.Coordinates) (string, error) {
	c.calls++
	return c.label, c.err
}

func TestCachedProvider(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		next := &countingProvider{label: "Izium, Kharkiv Oblast, Ukraine"}
		cached, err := geocoding.NewCachedProvider(next, filepath.Join(t.TempDir(), "geocode.sqlite"), logger)
		require.NoError(t, err)
		defer cached.Close()

		first, err := cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 49.21, Longitude: 37.25})
		require.NoError(t, err)
		second, err := cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 49.210001, Longitude: 37.250001})
		require.NoError(t, err)

		assert.Equal(t, "Izium, Kharkiv Oblast, Ukraine", first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("distant points are cached separately", func(t *testing.T) {
		next := &countingProvider{label: "somewhere"}
		cached, err := geocoding.NewCachedProvider(next, filepath.Join(t.TempDir(), "geocode.sqlite"), logger)
		require.NoError(t, err)
		defer cached.Close()

		_, err = cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 1, Longitude: 1})
		require.NoError(t, err)
		_, err = cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 1.01, Longitude: 1})
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		next := &countingProvider{err: assert.AnError}
		cached, err := geocoding.NewCachedProvider(next, filepath.Join(t.TempDir(), "geocode.sqlite"), logger)
		require.NoError(t, err)
		defer cached.Close()

		_, err = cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 1, Longitude: 1})
		require.ErrorIs(t, err, assert.AnError)
		_, err = cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 1, Longitude: 1})
		require.ErrorIs(t, err, assert.AnError)

		assert.Equal(t, 2, next.calls)
	})

	t.Run("cache survives reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geocode.sqlite")
		next := &countingProvider{label: "Kupiansk"}
		cached, err := geocoding.NewCachedProvider(next, path, logger)
		require.NoError(t, err)
		_, err = cached.ReverseGeocode(ctx, models.Coordinates{Latitude: 49.71, Longitude: 37.61})
		require.NoError(t, err)
		require.NoError(t, cached.Close())

		reopened, err := geocoding.NewCachedProvider(&countingProvider{err: assert.AnError}, path, logger)
		require.NoError(t, err)
		defer reopened.Close()

		label, err := reopened.ReverseGeocode(ctx, models.Coordinates{Latitude: 49.71, Longitude: 37.61})
		require.NoError(t, err)
		assert.Equal(t, "Kupiansk", label)
	})
}
