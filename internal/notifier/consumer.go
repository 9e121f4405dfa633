package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const sendAttempts = 3

// MessageReader is the part of kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})
}

// Consumer turns order.placed events into confirmation emails. A message
// is committed once it is handled or found to be unusable.
type Consumer struct {
	reader  MessageReader
	mailer  Mailer
	log     *slog.Logger
	backoff time.Duration
}

func NewConsumer(reader MessageReader, mailer Mailer, log *slog.Logger) *Consumer {
	if log == nil {
		log = logger.Discard()
	}
	return &Consumer{reader: reader, mailer: mailer, log: log, backoff: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.log.ErrorContext(ctx, "error reading message", slog.Any("error", err))
			}
			continue
		}
		c.handle(ctx, m)
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.ErrorContext(ctx, "failed to commit message", slog.Int64("offset", m.Offset), slog.Any("error", err))
		}
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing reader", slog.Any("error", err))
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	if eventType(m) != domain.EventOrderPlaced {
		return
	}
	var evt domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		c.log.ErrorContext(ctx, "error parsing message", slog.Int64("offset", m.Offset), slog.Any("error", err))
		return
	}
	log := c.log.With(slog.String("order_number", evt.OrderNumber))
	if evt.CustomerEmail == "" {
		log.WarnContext(ctx, "order has no customer email, skipping confirmation")
		return
	}

	email, err := OrderConfirmation(evt)
	if err != nil {
		log.ErrorContext(ctx, "failed to render confirmation", slog.Any("error", err))
		return
	}

	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err = c.mailer.Send(ctx, email)
		if err == nil {
			log.InfoContext(ctx, "order confirmation sent")
			return
		}
		log.WarnContext(ctx, "failed to send confirmation", slog.Int("attempt", attempt), slog.Any("error", err))
		if attempt < sendAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}
	log.ErrorContext(ctx, "giving up on order confirmation", slog.Any("error", err))
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
