package fallback_test

import (
	"math"
	"sync"
	"testing"

	"github.com/UnknownOlympus/minemap/internal/fallback"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestProvider(t *testing.T) {
	t.Parallel()

	t.Run("sentinel before first idle event", func(t *testing.T) {
		t.Parallel()
		provider := fallback.NewProvider()

		assert.Equal(t, models.Sentinel, provider.Current())
		assert.False(t, provider.Known())
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()
		provider := fallback.NewProvider()

		provider.OnViewportIdle(models.Coordinates{Latitude: 1, Longitude: 2})
		provider.OnViewportIdle(models.Coordinates{Latitude: 10.5, Longitude: 20.25})

		assert.Equal(t, models.Coordinates{Latitude: 10.5, Longitude: 20.25}, provider.Current())
		assert.True(t, provider.Known())
	})

	t.Run("invalid coordinates are ignored", func(t *testing.T) {
		t.Parallel()
		provider := fallback.NewProvider()
		provider.OnViewportIdle(models.Coordinates{Latitude: 3, Longitude: 4})

		provider.OnViewportIdle(models.Coordinates{Latitude: 120, Longitude: 4})
		provider.OnViewportIdle(models.Coordinates{Latitude: math.NaN(), Longitude: 4})

		assert.Equal(t, models.Coordinates{Latitude: 3, Longitude: 4}, provider.Current())
	})

	t.Run("concurrent writers never tear a value", func(t *testing.T) {
		t.Parallel()
		provider := fallback.NewProvider()
		var wg sync.WaitGroup

		for i := range 50 {
			wg.Add(1)
			go func(v float64) {
				defer wg.Done()
				provider.OnViewportIdle(models.Coordinates{Latitude: v, Longitude: v})
			}(float64(i))
		}
		wg.Wait()

		got := provider.Current()
		assert.InDelta(t, got.Latitude, got.Longitude, 0)
	})
}
