package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	r "github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/fjod/athometyre/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

const batchSize = 100

// MessageWriter is the part of kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Config struct {
	EventTick    time.Duration
	RecoveryTick time.Duration
	// StuckAfter is the age at which an IN_PROGRESS checkout is parked
	// for reconciliation.
	StuckAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		EventTick:    time.Second,
		RecoveryTick: 30 * time.Second,
		StuckAfter:   70 * time.Second,
	}
}

// OutboxPoller publishes committed outbox events to kafka and parks
// checkouts that never finished.
type OutboxPoller struct {
	cfg     Config
	repo    r.OutboxRepository
	writer  MessageWriter
	metrics *metrics.ServerMetrics
	log     *slog.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

func NewOutboxPoller(repo r.OutboxRepository, writer MessageWriter, cfg Config, m *metrics.ServerMetrics, log *slog.Logger) *OutboxPoller {
	if log == nil {
		log = logger.Discard()
	}
	def := DefaultConfig()
	if cfg.EventTick <= 0 {
		cfg.EventTick = def.EventTick
	}
	if cfg.RecoveryTick <= 0 {
		cfg.RecoveryTick = def.RecoveryTick
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = def.StuckAfter
	}
	return &OutboxPoller{cfg: cfg, repo: repo, writer: writer, metrics: m, log: log}
}

// Run blocks until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.cfg.EventTick)
	recoveryTicker := time.NewTicker(p.cfg.RecoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch outbox events", slog.Any("error", err))
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.log.ErrorContext(ctx, "failed to publish outbox event",
				slog.Int64("event_id", event.ID), slog.Any("error", err))
			p.count(event.EventType, "error")
			// keep order per aggregate: retry the rest on the next tick
			return
		}
		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark outbox event as processed",
				slog.Int64("event_id", event.ID), slog.Any("error", err))
			p.count(event.EventType, "error")
			return
		}
		p.count(event.EventType, "published")
	}
}

func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	sessions, err := p.repo.GetStuckSessions(ctx, p.cfg.StuckAfter)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to get stuck checkouts", slog.Any("error", err))
		return
	}
	for _, s := range sessions {
		if err := p.repo.MarkSessionReconcile(ctx, s.ID, "checkout stuck in progress"); err != nil {
			p.log.ErrorContext(ctx, "failed to park stuck checkout",
				slog.String("checkout_id", s.ID.String()), slog.Any("error", err))
			continue
		}
		p.log.ErrorContext(ctx, "stuck checkout parked for reconciliation",
			logger.Reconciliation,
			slog.String("checkout_id", s.ID.String()),
			slog.Int64("user_id", s.UserID),
			slog.String("transaction_id", s.TransactionID),
			slog.Time("started_at", s.CreatedAt))
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxPoller) count(eventType, result string) {
	if p.metrics != nil {
		p.metrics.OutboxPublished.WithLabelValues(eventType, result).Inc()
	}
}
