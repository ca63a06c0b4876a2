package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// CategoryInput is one named sub-limit supplied at budget creation.
type CategoryInput struct {
	Name  string
	Limit float64
}

// CreateBudgetInput carries everything needed to create a budget. The
// category set is fixed for the budget's lifetime.
type CreateBudgetInput struct {
	GroupID    string
	Name       string
	Categories []CategoryInput
	Period     models.Period
	StartDate  int64
	EndDate    int64
}

// BudgetService is the budget aggregator: it owns the derived category and
// total spend counters and guarantees they move together.
type BudgetService struct {
	store storage.Store
	guard *Guard
	audit audit.Publisher
}

// NewBudgetService creates a new BudgetService with the given storage backend.
func NewBudgetService(store storage.Store, guard *Guard, pub audit.Publisher) *BudgetService {
	return &BudgetService{store: store, guard: guard, audit: pub}
}

// CreateBudget creates a budget with a fixed category set. TotalLimit is the
// sum of category limits computed once here; it is never recomputed because
// categories cannot change after creation.
func (s *BudgetService) CreateBudget(ctx context.Context, actorID string, in CreateBudgetInput) (*models.Budget, error) {
	slog.InfoContext(ctx, "CreateBudget request received",
		"actor_id", actorID,
		"group_id", in.GroupID,
		"name", in.Name,
		"categories_count", len(in.Categories),
	)

	if _, err := s.guard.Authorize(ctx, actorID, in.GroupID); err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, fmt.Errorf("budget name is required: %w", ErrValidation)
	}
	if len(in.Categories) == 0 {
		return nil, fmt.Errorf("budget needs at least one category: %w", ErrValidation)
	}
	if !in.Period.Valid() {
		return nil, fmt.Errorf("invalid budget period %q: %w", in.Period, ErrValidation)
	}
	if in.StartDate >= in.EndDate {
		return nil, fmt.Errorf("budget end date must be after start date: %w", ErrValidation)
	}

	seen := make(map[string]bool, len(in.Categories))
	var totalLimit float64
	categories := make([]models.Category, len(in.Categories))
	for i, cat := range in.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category name is required: %w", ErrValidation)
		}
		if seen[cat.Name] {
			return nil, fmt.Errorf("duplicate category %q: %w", cat.Name, ErrValidation)
		}
		seen[cat.Name] = true
		if cat.Limit < 0 {
			return nil, fmt.Errorf("category %q limit must be non-negative, got %v: %w", cat.Name, cat.Limit, ErrValidation)
		}
		totalLimit += cat.Limit
		categories[i] = models.Category{Name: cat.Name, Limit: cat.Limit}
	}

	budget := &models.Budget{
		GroupID:    in.GroupID,
		Name:       in.Name,
		Period:     in.Period,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalLimit: totalLimit,
		Categories: categories,
		CreatedBy:  actorID,
	}

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		slog.ErrorContext(ctx, "CreateBudget failed", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Budget created", "budget_id", budget.ID, "total_limit", totalLimit)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionCreated,
		Entity:   audit.EntityBudget,
		EntityID: budget.ID,
		ActorID:  actorID,
		GroupID:  in.GroupID,
		Changes:  map[string]any{"name": in.Name, "total_limit": totalLimit},
	})

	return budget, nil
}

// ApplySpend attributes amount to the named category, moving the category's
// spent counter and the budget total together. A missing category leaves
// both counters untouched and returns storage.ErrCategoryNotFound.
func (s *BudgetService) ApplySpend(ctx context.Context, actorID, budgetID, category string, amount float64) error {
	slog.InfoContext(ctx, "ApplySpend request received",
		"actor_id", actorID,
		"budget_id", budgetID,
		"category", category,
		"amount", amount,
	)

	if amount <= 0 {
		return fmt.Errorf("spend amount must be positive, got %v: %w", amount, ErrValidation)
	}

	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, actorID, budget.GroupID); err != nil {
		return err
	}

	if err := s.store.ApplySpend(ctx, budgetID, category, amount); err != nil {
		slog.ErrorContext(ctx, "ApplySpend failed", "budget_id", budgetID, "error", err)
		return err
	}

	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionSpendApplied,
		Entity:   audit.EntityBudget,
		EntityID: budgetID,
		ActorID:  actorID,
		GroupID:  budget.GroupID,
		Changes:  map[string]any{"category": category, "amount": amount},
	})

	return nil
}

// ListBudgets retrieves the group's budgets, most recent first.
func (s *BudgetService) ListBudgets(ctx context.Context, actorID, groupID string) ([]*models.Budget, error) {
	if _, err := s.guard.Authorize(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListBudgetsByGroup(ctx, groupID)
}
