package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher announces updated stations on a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for topic. A nil clock follows
// domain.Now.
func NewPublisher(brokers []string, topic string, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// Notify publishes one message per station in a single WriteMessages call.
// Messages are keyed by station code so a station's updates stay ordered.
func (p *Publisher) Notify(ctx context.Context, records []domain.StationRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := domain.Now()
	if p.clock != nil {
		now = p.clock.Now()
	}
	now = now.UTC()
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], now)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish station updates: %w", err)
	}
	p.logger.Info("station updates published", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a StationRecord into a Kafka message.
func serializeToMessage(record domain.StationRecord, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %s: %w", record.Code, err)
	}
	status, latest := string(domain.StatusUnknown), ""
	if record.Latest != nil {
		status, latest = string(record.Latest.Status), record.Latest.Date.String()
	}
	return kafkago.Message{
		Key:   []byte(record.Code),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(status)},
			{Key: "latest_date", Value: []byte(latest)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
