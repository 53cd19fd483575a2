// Package producers contains the Kafka producers that publish settlement
// run results for downstream consumers (reporting, notifications).
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/homeplanner/settlement-scheduler/internal/config"
	"github.com/homeplanner/settlement-scheduler/internal/settlement"
)

// SettlementEventProducer publishes one event per finished settlement run,
// keyed by run id. Writes are synchronous: a run report either lands on the
// stream or the caller finds out.
type SettlementEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewSettlementEventProducer creates the producer and ensures the topic exists.
func NewSettlementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SettlementEventProducer, error) {
	if cfg.SettlementTopic == "" {
		return nil, fmt.Errorf("kafka settlement topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for settlement event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.SettlementTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure settlement topic %s exists: %w", cfg.SettlementTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SettlementTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &SettlementEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SettlementTopic,
	}, nil
}

// PublishRun publishes a finished run's summary, keyed by its run id.
func (p *SettlementEventProducer) PublishRun(ctx context.Context, summary settlement.RunSummary) error {
	jsonValue, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(summary.RunID),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish settlement run event",
			"topic", p.topic,
			"run_id", summary.RunID,
			"engine", summary.Engine,
			"error", err,
		)
		return fmt.Errorf("failed to publish settlement run event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published settlement run event",
		"topic", p.topic,
		"run_id", summary.RunID,
		"engine", summary.Engine,
	)
	return nil
}

// Close shuts the underlying writer down.
func (p *SettlementEventProducer) Close() error {
	p.logger.Info("Closing settlement event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

var _ settlement.Reporter = (*SettlementEventProducer)(nil)
