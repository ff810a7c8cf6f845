// Package publish fans settled rounds out to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marcelohmariano/blade/internal/domain"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig names the brokers and topic for round events.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher writes each settled round as JSON keyed by round id, so a
// round always lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("publish: kafka brokers not provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("publish: kafka topic not provided")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           cfg.WriteTimeout,
	}
	return NewPublisher(w, logger), nil
}

// NewPublisher wraps an existing writer.
func NewPublisher(w MessageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		logger: logger.With(slog.String("component", "kafka_publisher")),
	}
}

// Publish writes one round result.
func (p *KafkaPublisher) Publish(ctx context.Context, res domain.RoundResult) error {
	value, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("publish: marshal round %s: %w", res.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(res.ID),
		Value: value,
		Time:  res.RolledAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish: write round %s: %w", res.ID, err)
	}
	p.logger.Debug("round published", slog.String("round", res.ID))
	return nil
}

// OnRound publishes res and logs failures; the bot keeps running when the
// broker is down.
func (p *KafkaPublisher) OnRound(ctx context.Context, res domain.RoundResult) {
	if err := p.Publish(ctx, res); err != nil {
		p.logger.Warn("round publish failed", slog.String("error", err.Error()))
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
