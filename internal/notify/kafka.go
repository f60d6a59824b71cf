// Package notify publishes commute recommendations to Kafka.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/vzahanych/smart-commute/internal/aggregator"
	"github.com/vzahanych/smart-commute/internal/config"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per recommendation.
// It implements aggregator.Publisher.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewPublisher(cfg config.NotifyConfig, logger *zap.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{
		writer: w,
		topic:  cfg.Topic,
		logger: logger.With(zap.String("topic", cfg.Topic)),
	}
}

func (p *Publisher) Publish(ctx context.Context, rec *aggregator.Recommendation) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish recommendation to %s: %w", p.topic, err)
	}

	p.logger.Debug("Recommendation published",
		zap.String("key", string(msg.Key)),
		zap.Int("confidence", rec.Confidence))

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage keys the message by origin|destination so updates for
// one commute stay ordered on a single partition.
func serializeToMessage(rec *aggregator.Recommendation) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize recommendation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(aggregator.CacheKey(rec.Origin, rec.Destination)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "confidence", Value: []byte(strconv.Itoa(rec.Confidence))},
			{Key: "generated_at", Value: []byte(rec.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
