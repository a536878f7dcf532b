package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/segmentio/kafka-go"
)

// Kind names the registry change an event reports.
type Kind string

// Registry changes published to the topic.
const (
	KindBound    Kind = "marker.bound"
	KindReplaced Kind = "marker.replaced"
	KindUnbound  Kind = "marker.unbound"
)

// Event is the JSON payload written to the topic. The record is keyed by its ID so every
// change to one landmine lands on the same partition.
type Event struct {
	Kind       Kind            `json:"kind"`
	Handle     models.Handle   `json:"handle"`
	Landmine   models.Landmine `json:"landmine"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher announces registry changes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, kind Kind, handle models.Handle, mine models.Landmine) error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages to a Kafka topic.
type KafkaPublisher struct {
	writer MessageWriter
	log    *slog.Logger
	now    func() time.Time
}

// NewKafkaWriter builds a writer that hashes message keys across partitions.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher returns a publisher writing through writer.
func NewKafkaPublisher(writer MessageWriter, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log, now: time.Now}
}

// Publish writes one event keyed by the landmine ID.
func (p *KafkaPublisher) Publish(ctx context.Context, kind Kind, handle models.Handle, mine models.Landmine) error {
	payload, err := json.Marshal(Event{Kind: kind, Handle: handle, Landmine: mine, OccurredAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(mine.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(kind)},
		},
	}
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	p.log.DebugContext(ctx, "Event published", "kind", kind, "handle", handle, "id", mine.ID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Discard drops every event. It is used when no brokers are configured.
type Discard struct{}

func (Discard) Publish(context.Context, Kind, models.Handle, models.Landmine) error {
	return nil
}
