package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// SavingsService is the savings accumulator: it appends contributions and
// keeps each goal's current amount equal to their sum.
type SavingsService struct {
	store storage.Store
	guard *Guard
	audit audit.Publisher
}

// NewSavingsService creates a new SavingsService with the given storage backend.
func NewSavingsService(store storage.Store, guard *Guard, pub audit.Publisher) *SavingsService {
	return &SavingsService{store: store, guard: guard, audit: pub}
}

// CreateGoal creates a savings goal with a zero current amount.
// targetDate is optional; zero means no deadline.
func (s *SavingsService) CreateGoal(ctx context.Context, actorID, groupID, name, description string, targetAmount float64, targetDate int64) (*models.SavingsGoal, error) {
	slog.InfoContext(ctx, "CreateGoal request received",
		"actor_id", actorID,
		"group_id", groupID,
		"name", name,
		"target_amount", targetAmount,
	)

	if _, err := s.guard.Authorize(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	if name == "" {
		return nil, fmt.Errorf("goal name is required: %w", ErrValidation)
	}
	if targetAmount <= 0 {
		return nil, fmt.Errorf("target amount must be positive, got %v: %w", targetAmount, ErrValidation)
	}

	goal := &models.SavingsGoal{
		GroupID:      groupID,
		Name:         name,
		Description:  description,
		TargetAmount: targetAmount,
		TargetDate:   targetDate,
		CreatedBy:    actorID,
	}

	if err := s.store.CreateGoal(ctx, goal); err != nil {
		slog.ErrorContext(ctx, "CreateGoal failed", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Savings goal created", "goal_id", goal.ID)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionCreated,
		Entity:   audit.EntityGoal,
		EntityID: goal.ID,
		ActorID:  actorID,
		GroupID:  groupID,
		Changes:  map[string]any{"name": name, "target_amount": targetAmount},
	})

	return goal, nil
}

// Contribute appends a contribution for the actor and moves the goal's
// current amount by the same value, as one unit. There is no upper clamp:
// overfunding past the target is allowed, not an error.
func (s *SavingsService) Contribute(ctx context.Context, actorID, goalID string, amount float64) (*models.SavingsGoal, error) {
	slog.InfoContext(ctx, "Contribute request received",
		"actor_id", actorID,
		"goal_id", goalID,
		"amount", amount,
	)

	if amount <= 0 {
		return nil, fmt.Errorf("contribution amount must be positive, got %v: %w", amount, ErrValidation)
	}

	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actorID, goal.GroupID); err != nil {
		return nil, err
	}

	contribution := &models.Contribution{Member: actorID, Amount: amount}
	if err := s.store.AddContribution(ctx, goalID, contribution); err != nil {
		slog.ErrorContext(ctx, "Contribute failed", "goal_id", goalID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Contribution recorded", "goal_id", goalID, "amount", amount)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionContributed,
		Entity:   audit.EntityGoal,
		EntityID: goalID,
		ActorID:  actorID,
		GroupID:  goal.GroupID,
		Changes:  map[string]any{"amount": amount},
	})

	return s.store.GetGoal(ctx, goalID)
}

// ListGoals retrieves the group's savings goals, most recent first.
func (s *SavingsService) ListGoals(ctx context.Context, actorID, groupID string) ([]*models.SavingsGoal, error) {
	if _, err := s.guard.Authorize(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListGoalsByGroup(ctx, groupID)
}
