// Package audit defines the domain events emitted after successful mutations
// and the publishers that deliver them to external audit/notification
// subscribers.
//
// Delivery is fire-and-forget: a publish failure is logged by the caller and
// never fails the mutation that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Actions emitted by the core.
const (
	ActionCreated      = "created"
	ActionMemberAdded  = "member_added"
	ActionSettled      = "settled"
	ActionSpendApplied = "spend_applied"
	ActionContributed  = "contributed"
)

// Entity kinds emitted by the core.
const (
	EntityGroup   = "group"
	EntityExpense = "expense"
	EntityBudget  = "budget"
	EntityGoal    = "savings_goal"
)

// Event describes one successful mutation of group-scoped state.
type Event struct {
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entityId"`
	ActorID   string         `json:"actorId"`
	GroupID   string         `json:"groupId"`
	Changes   map[string]any `json:"changes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers audit events to an external subscriber.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. It is the default
// publisher when no message broker is configured.
type LogPublisher struct{}

// Publish logs the event at Info level. It never fails.
func (LogPublisher) Publish(ctx context.Context, event Event) error {
	slog.InfoContext(ctx, "audit event",
		"action", event.Action,
		"entity", event.Entity,
		"entity_id", event.EntityID,
		"actor_id", event.ActorID,
		"group_id", event.GroupID,
	)
	return nil
}
