package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// splitSumTolerance absorbs float rounding when comparing the sum of split
// amounts against the expense total.
const splitSumTolerance = 0.01

// ExpenseOptions are the policy knobs of the expense ledger. The zero value
// is NOT the default; use DefaultExpenseOptions.
type ExpenseOptions struct {
	// EnforceSplitSum requires the split amounts to sum to the expense
	// total. Off by default: callers may record partial split tracking.
	EnforceSplitSum bool

	// AllowPartialAttribution keeps the expense when its budget category
	// attribution fails with a category-not-found. On by default. When
	// disabled, the category is validated before the expense is written,
	// so a bad attribution creates nothing.
	AllowPartialAttribution bool

	// StrictSettlement makes a repeat MarkSplitPaid return
	// ErrAlreadySettled instead of the default idempotent success.
	StrictSettlement bool
}

// DefaultExpenseOptions returns the documented default policy: split sums
// unchecked, partial attribution failures tolerated, settlement idempotent.
func DefaultExpenseOptions() ExpenseOptions {
	return ExpenseOptions{
		EnforceSplitSum:         false,
		AllowPartialAttribution: true,
		StrictSettlement:        false,
	}
}

// SplitInput is one caller-supplied per-member obligation.
type SplitInput struct {
	Member string
	Amount float64
}

// RecordExpenseInput carries everything needed to record an expense.
// BudgetID and Category must both be set for the amount to count against a
// budget; either one alone leaves the expense unattributed.
type RecordExpenseInput struct {
	GroupID     string
	Title       string
	Description string
	Type        string
	Amount      float64
	Payer       string
	Splits      []SplitInput
	BudgetID    string
	Category    string
	DueDate     int64
}

// ExpenseService is the expense ledger: it records monetary events with
// per-member split obligations and propagates attributed amounts into the
// owning budget's spend counters.
type ExpenseService struct {
	store storage.Store
	guard *Guard
	audit audit.Publisher
	opts  ExpenseOptions
}

// NewExpenseService creates a new ExpenseService with the given storage
// backend and policy options.
func NewExpenseService(store storage.Store, guard *Guard, pub audit.Publisher, opts ExpenseOptions) *ExpenseService {
	return &ExpenseService{store: store, guard: guard, audit: pub, opts: opts}
}

// RecordExpense creates an expense owned by the group. When the input names
// both a budget and a category, the amount is applied to that budget's
// spend counters in the same logical unit of work.
//
// Per the partial-attribution policy, a category-not-found during spend
// propagation does not roll back the already-committed expense when
// AllowPartialAttribution is set; the failure is logged and the expense
// survives. With the option off, the category is checked up front and the
// call fails before anything is written.
func (s *ExpenseService) RecordExpense(ctx context.Context, actorID string, in RecordExpenseInput) (*models.Expense, error) {
	slog.InfoContext(ctx, "RecordExpense request received",
		"actor_id", actorID,
		"group_id", in.GroupID,
		"title", in.Title,
		"amount", in.Amount,
		"splits_count", len(in.Splits),
	)

	group, err := s.guard.Authorize(ctx, actorID, in.GroupID)
	if err != nil {
		return nil, err
	}

	if err := s.validateExpense(group, in); err != nil {
		return nil, err
	}

	attributed := in.BudgetID != "" && in.Category != ""
	if attributed {
		budget, err := s.store.GetBudget(ctx, in.BudgetID)
		if err != nil {
			return nil, err
		}
		if budget.GroupID != in.GroupID {
			return nil, fmt.Errorf("budget %s does not belong to group %s: %w", in.BudgetID, in.GroupID, ErrValidation)
		}
		if !s.opts.AllowPartialAttribution && budget.CategoryByName(in.Category) == nil {
			return nil, fmt.Errorf("category %q on budget %s: %w", in.Category, in.BudgetID, storage.ErrCategoryNotFound)
		}
	}

	splits := make([]models.Split, len(in.Splits))
	for i, sp := range in.Splits {
		splits[i] = models.Split{Member: sp.Member, Amount: sp.Amount}
	}

	expense := &models.Expense{
		GroupID:     in.GroupID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Payer:       in.Payer,
		BudgetID:    in.BudgetID,
		Category:    in.Category,
		Splits:      splits,
		DueDate:     in.DueDate,
		CreatedBy:   actorID,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "RecordExpense failed", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Expense recorded", "expense_id", expense.ID, "group_id", in.GroupID)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionCreated,
		Entity:   audit.EntityExpense,
		EntityID: expense.ID,
		ActorID:  actorID,
		GroupID:  in.GroupID,
		Changes:  map[string]any{"title": in.Title, "amount": in.Amount},
	})

	if attributed {
		if err := s.store.ApplySpend(ctx, in.BudgetID, in.Category, in.Amount); err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				// The expense is committed and stays; spend tracking
				// alone failed. Neither budget counter moved.
				slog.WarnContext(ctx, "budget attribution skipped, category not found",
					"expense_id", expense.ID,
					"budget_id", in.BudgetID,
					"category", in.Category,
				)
				return expense, nil
			}
			slog.ErrorContext(ctx, "failed to apply spend", "expense_id", expense.ID, "error", err)
			return nil, err
		}
		emit(ctx, s.audit, audit.Event{
			Action:   audit.ActionSpendApplied,
			Entity:   audit.EntityBudget,
			EntityID: in.BudgetID,
			ActorID:  actorID,
			GroupID:  in.GroupID,
			Changes:  map[string]any{"category": in.Category, "amount": in.Amount},
		})
	}

	return expense, nil
}

func (s *ExpenseService) validateExpense(group *models.Group, in RecordExpenseInput) error {
	if in.Title == "" {
		return fmt.Errorf("expense title is required: %w", ErrValidation)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("expense amount must be positive, got %v: %w", in.Amount, ErrValidation)
	}
	if !group.HasMember(in.Payer) {
		return fmt.Errorf("payer %s is not a group member: %w", in.Payer, ErrValidation)
	}

	var splitSum float64
	for _, sp := range in.Splits {
		if !group.HasMember(sp.Member) {
			return fmt.Errorf("split member %s is not a group member: %w", sp.Member, ErrValidation)
		}
		if sp.Amount < 0 {
			return fmt.Errorf("split amount for %s must be non-negative, got %v: %w", sp.Member, sp.Amount, ErrValidation)
		}
		splitSum += sp.Amount
	}

	if s.opts.EnforceSplitSum && math.Abs(splitSum-in.Amount) > splitSumTolerance {
		return fmt.Errorf("split amounts sum to %v, expense amount is %v: %w", splitSum, in.Amount, ErrValidation)
	}

	return nil
}

// MarkSplitPaid settles the split belonging to memberID on the expense.
// The default policy is idempotent success: settling an already-paid split
// is a no-op that changes nothing and emits nothing. With StrictSettlement
// it returns ErrAlreadySettled instead.
func (s *ExpenseService) MarkSplitPaid(ctx context.Context, actorID, expenseID, memberID string) error {
	slog.InfoContext(ctx, "MarkSplitPaid request received",
		"actor_id", actorID,
		"expense_id", expenseID,
		"member_id", memberID,
	)

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, actorID, expense.GroupID); err != nil {
		return err
	}

	changed, err := s.store.SetSplitPaid(ctx, expenseID, memberID)
	if err != nil {
		slog.ErrorContext(ctx, "MarkSplitPaid failed", "expense_id", expenseID, "error", err)
		return err
	}
	if !changed {
		if s.opts.StrictSettlement {
			return fmt.Errorf("split for member %s on expense %s: %w", memberID, expenseID, ErrAlreadySettled)
		}
		slog.InfoContext(ctx, "Split already settled", "expense_id", expenseID, "member_id", memberID)
		return nil
	}

	slog.InfoContext(ctx, "Split settled", "expense_id", expenseID, "member_id", memberID)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionSettled,
		Entity:   audit.EntityExpense,
		EntityID: expenseID,
		ActorID:  actorID,
		GroupID:  expense.GroupID,
		Changes:  map[string]any{"member": memberID, "paid": true},
	})

	return nil
}

// ListExpenses retrieves the group's expenses, most recent first.
func (s *ExpenseService) ListExpenses(ctx context.Context, actorID, groupID string) ([]*models.Expense, error) {
	if _, err := s.guard.Authorize(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}
