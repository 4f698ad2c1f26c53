package services

import (
	"context"

	"daan/internal/amqp"
	"daan/internal/core"
	"daan/internal/log"
	"daan/internal/metrics"
)

// EventPublisher sends ledger events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Paging bounds caller-supplied page sizes.
type Paging struct {
	Default int
	Max     int
}

var DefaultPaging = Paging{Default: 50, Max: 500}

// Normalize makes req safe to run: page numbers start at 1, a missing limit
// takes the default and oversized limits are capped.
func (p Paging) Normalize(req core.PageRequest) core.PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = p.Default
	}
	if p.Max > 0 && req.Limit > p.Max {
		req.Limit = p.Max
	}
	return req
}

// eventSink publishes events after the local write has committed. Failures
// are logged and counted but never returned: the ledger is the source of
// truth and the mirror can be rebuilt.
type eventSink struct {
	pub     EventPublisher
	metrics *metrics.Metrics
}

func (s eventSink) publish(ctx context.Context, events ...*amqp.LedgerEvent) {
	if len(events) == 0 {
		return
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentAMQP)
	if s.pub == nil {
		logger.DebugContext(ctx, "AMQP publisher not configured, skipping ledger events", "count", len(events))
		return
	}
	// The write already happened; a client hanging up must not drop the event.
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		if err := s.pub.Publish(ctx, ev); err != nil {
			logger.ErrorContext(ctx, "Failed to publish ledger event",
				append([]any{log.FieldEventType, ev.Type, log.FieldEventID, ev.ID},
					log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)...)
			s.metrics.PublishFailed(string(ev.Type))
		}
	}
}
