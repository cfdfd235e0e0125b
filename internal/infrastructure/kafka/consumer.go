package kafka

import (
	"context"
	"time"

	"github.com/example/ec-storefront/internal/logger"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer hands each message of a consumer group to a handler and commits
// its offset afterwards.
type Consumer struct {
	reader messageReader
	log    *logger.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(reader, log)
}

func newConsumer(reader messageReader, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		reader:     reader,
		log:        log.Component("kafka-consumer"),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
}

// Consume runs until ctx is done. A message the handler rejects is logged
// and still committed, so one bad payload cannot stall the partition.
// Consecutive fetch failures back off exponentially up to maxBackoff.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	backoff := c.minBackoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error(c.log.WithField(ctx, "retry_in", backoff.String()), "fetching message", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		msgCtx := c.log.WithFields(ctx, map[string]any{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if err := handler(msgCtx, msg.Key, msg.Value); err != nil {
			c.log.Error(msgCtx, "handling message", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(msgCtx, "committing offset", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
