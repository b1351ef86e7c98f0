package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/nats-io/nats.go"
)

// OutcomeConsumer applies dispatch outcome reports published by transport workers.
type OutcomeConsumer struct {
	queue  *SubscriberQueue
	logger *slog.Logger
}

func NewOutcomeConsumer(queue *SubscriberQueue, logger *slog.Logger) *OutcomeConsumer {
	return &OutcomeConsumer{queue: queue, logger: logger}
}

// Handle decodes and applies one OutcomeReport. Reports for subscribers that
// are no longer claimed are redeliveries and are dropped.
func (o *OutcomeConsumer) Handle(ctx context.Context, data []byte) error {
	var report domain.OutcomeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("decode outcome report: %w", err)
	}
	_, err := o.queue.ReportOutcome(ctx, report.SubscriberID, report.Success, report.MessageID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSubscriberNotClaimed), errors.Is(err, domain.ErrNotFound):
		o.logger.WarnContext(ctx, "Dropping outcome report", "subscriber_id", report.SubscriberID, "reason", err.Error())
		return nil
	default:
		return err
	}
}

func (o *OutcomeConsumer) NATSHandler(ctx context.Context) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		if err := o.Handle(ctx, msg.Data); err != nil {
			o.logger.ErrorContext(ctx, "Failed to process outcome report", "subject", msg.Subject, "error", err)
		}
	}
}
