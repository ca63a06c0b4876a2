package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/metrics"
)

// emit publishes an audit event and bumps the mutation counter. Publishing
// is fire-and-forget: a failure is logged and counted, never returned, so it
// cannot fail the mutation that produced the event.
func emit(ctx context.Context, pub audit.Publisher, event audit.Event) {
	metrics.Mutations.WithLabelValues(event.Entity, event.Action).Inc()

	if pub == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := pub.Publish(ctx, event); err != nil {
		metrics.AuditPublishFailures.Inc()
		slog.WarnContext(ctx, "failed to publish audit event",
			"action", event.Action,
			"entity", event.Entity,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}
