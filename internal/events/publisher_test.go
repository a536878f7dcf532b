package events_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/minemap/internal/events"
	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()
	mine := models.NewLandmine("north gate", "", models.Coordinates{Latitude: 49.99, Longitude: 36.23},
		"s3://landmines/a.jpg", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)).WithID("abc")

	t.Run("success - message keyed by record ID", func(t *testing.T) {
		t.Parallel()
		writer := &recordingWriter{}
		publisher := events.NewKafkaPublisher(writer, slog.Default())

		require.NoError(t, publisher.Publish(t.Context(), events.KindBound, "m0", mine))
		require.Len(t, writer.messages, 1)

		msg := writer.messages[0]
		assert.Equal(t, "abc", string(msg.Key))
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "marker.bound", string(msg.Headers[0].Value))

		var event events.Event
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, events.KindBound, event.Kind)
		assert.Equal(t, models.Handle("m0"), event.Handle)
		assert.Equal(t, models.AnonymousDiscoverer, event.Landmine.Discoverer)
		assert.False(t, event.OccurredAt.IsZero())

		require.NoError(t, publisher.Close())
		assert.True(t, writer.closed)
	})

	t.Run("error - write fails", func(t *testing.T) {
		t.Parallel()
		writer := &recordingWriter{err: assert.AnError}
		publisher := events.NewKafkaPublisher(writer, slog.Default())

		err := publisher.Publish(t.Context(), events.KindUnbound, "m0", mine)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to write event")
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	var publisher events.Publisher = events.Discard{}
	assert.NoError(t, publisher.Publish(t.Context(), events.KindReplaced, "m1", models.Landmine{}))
}

func TestNewKafkaWriter(t *testing.T) {
	t.Parallel()
	writer := events.NewKafkaWriter([]string{"localhost:9092"}, "landmines")
	assert.Equal(t, "landmines", writer.Topic)
	assert.Equal(t, "localhost:9092", writer.Addr.String())
}
