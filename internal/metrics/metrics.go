// Package metrics exposes prometheus counters for core ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mutations counts successful mutations by entity and action.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microsave_mutations_total",
		Help: "Successful group-scoped mutations, by entity and action.",
	}, []string{"entity", "action"})

	// AccessDenials counts operations rejected by the membership guard.
	AccessDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsave_access_denials_total",
		Help: "Operations rejected because the actor is not a group member.",
	})

	// AuditPublishFailures counts audit events that could not be delivered.
	// Publishing is fire-and-forget, so these are the only trace of a lost
	// event.
	AuditPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsave_audit_publish_failures_total",
		Help: "Audit events that failed to publish.",
	})
)
