// Package publisher ships ledger outbox events to kafka and flags orders whose
// payment never came back.
package publisher

import (
	"context"
	"time"

	"github.com/fjod/go_billing/internal/ledger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const Topic = "payment-outcomes"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OutboxPoller struct {
	timeout     time.Duration
	eventTick   time.Duration
	reviewTick  time.Duration
	reviewAfter time.Duration
	batchSize   int
	repo        ledger.OutboxStore
	writer      messageWriter
	log         *zap.Logger
}

// NewOutboxPoller builds a poller writing to Topic on brokers. Pending orders
// older than reviewAfter are flagged for manual review. With no brokers the
// outbox is left untouched and only the review sweep runs.
func NewOutboxPoller(repo ledger.OutboxStore, reviewAfter time.Duration, log *zap.Logger, brokers ...string) *OutboxPoller {
	var w messageWriter
	if len(brokers) > 0 {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  Topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}
	return &OutboxPoller{
		timeout:     5 * time.Second,
		eventTick:   time.Second,
		reviewTick:  time.Minute,
		reviewAfter: reviewAfter,
		batchSize:   100,
		repo:        repo,
		writer:      w,
		log:         log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	reviewTicker := time.NewTicker(p.reviewTick)
	defer eventTicker.Stop()
	defer reviewTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-reviewTicker.C:
			p.flagStalePayments(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	if p.writer == nil {
		return
	}
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error("failed to publish outbox event", zap.Int("event_id", event.ID), zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark outbox event processed", zap.Int("event_id", event.ID), zap.Error(err))
		}
	}
}

// flagStalePayments never fails an order; it only asks a human to look.
func (p *OutboxPoller) flagStalePayments(ctx context.Context) {
	if p.reviewAfter <= 0 {
		return
	}
	n, err := p.repo.FlagStalePending(ctx, p.reviewAfter)
	if err != nil {
		p.log.Error("failed to flag stale pending orders", zap.Error(err))
		return
	}
	if n > 0 {
		p.log.Warn("pending orders flagged for review", zap.Int64("count", n), zap.Duration("older_than", p.reviewAfter))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *ledger.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // order id, keeps one order's events ordered
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
