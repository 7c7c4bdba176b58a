package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"fingersatz/internal/config"
	"fingersatz/internal/handler"
	"fingersatz/internal/logging"
)

// retryDelay paces the loop after a transient broker error.
var retryDelay = time.Second

// Processor handles one raw notification payload. *handler.Handler
// satisfies it.
type Processor interface {
	Handle(ctx context.Context, raw []byte) handler.Envelope
}

// MessageReader matches the subset of kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer drains bucket notifications and processes each message
// independently. A failing message never halts the loop.
type Consumer struct {
	reader    MessageReader
	processor Processor
	logger    *slog.Logger
}

// NewConsumer builds a consumer from the events config section.
func NewConsumer(cfg config.Events, processor Processor, logger *slog.Logger) (*Consumer, error) {
	if !cfg.Enabled {
		return nil, errors.New("events: consumer is disabled")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events: topic must be set")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return NewConsumerWithReader(reader, processor, logger)
}

// NewConsumerWithReader wires the consumer to an existing reader.
func NewConsumerWithReader(reader MessageReader, processor Processor, logger *slog.Logger) (*Consumer, error) {
	if reader == nil {
		return nil, errors.New("events: reader must be set")
	}
	if processor == nil {
		return nil, errors.New("events: processor must be set")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Consumer{reader: reader, processor: processor, logger: logger}, nil
}

// Run consumes messages until ctx is cancelled, then closes the reader and
// returns nil. Every message receives exactly one envelope; failures are
// logged so a poisoned message cannot stall the topic.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to read bucket notification", logging.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		env := c.processor.Handle(ctx, message.Value)
		if env.OK() {
			c.logger.Info("bucket notification processed",
				logging.String(logging.FieldBucket, env.InputBucket),
				logging.String(logging.FieldKey, env.InputKey),
				logging.Int64("offset", message.Offset))
			continue
		}
		c.logger.Warn("bucket notification failed",
			logging.Int("status", env.StatusCode),
			logging.String("error", env.Error),
			logging.String(logging.FieldBucket, env.InputBucket),
			logging.String(logging.FieldKey, env.InputKey),
			logging.Int64("offset", message.Offset))
	}
}
