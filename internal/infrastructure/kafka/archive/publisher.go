// Package archive publishes completed trades to Kafka for downstream
// market-data consumers, grounded on the matching engine's
// match-publisher (its proto payload replaced with plain JSON, since
// BEACON carries no gRPC/protobuf surface).
package archive

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// Config holds the Kafka writer settings for the trade-archive topic.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher is a one-way Trade publisher; BEACON never reads this
// topic back (spec §3 "Archive" is downstream telemetry, not state).
type Publisher struct {
	writer *kafka.Writer
	logger logger.Interface
}

// NewPublisher creates a Publisher for cfg.
func NewPublisher(cfg Config, log logger.Interface) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: log,
	}
}

// WriteTrades publishes every trade as its own Kafka message, satisfying
// archive.Sink.
func (p *Publisher) WriteTrades(ctx context.Context, trades []tradev1.Trade) error {
	msgs := make([]kafka.Message, 0, len(trades))
	for _, t := range trades {
		buf, err := json.Marshal(t)
		if err != nil {
			return errors.TracerFromError(err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(t.ID), Value: buf})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.New(errors.KafkaWriteError, "", "failed to publish %d trades: %v", len(trades), err)
	}

	p.logger.Info("published trades", logger.Field{Key: "count", Value: len(trades)})
	return nil
}

// Close flushes and closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
