// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/microsave/microsave/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Implementations wrap it with the entity kind and ID.
var ErrNotFound = errors.New("not found")

// ErrCategoryNotFound is returned by ApplySpend when the budget exists but
// has no category with the requested name. The budget's counters are left
// untouched in that case.
var ErrCategoryNotFound = errors.New("budget category not found")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Implementations must provide per-entity atomic increments for the derived
// counters: ApplySpend and AddContribution may never be implemented as a read
// followed by a separate write of the counter value.
type Store interface {
	// CreateGroup persists a new group. The group.ID and group.CreatedAt
	// fields are populated by the store if unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID, including its member set.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMembers appends members to a group. Already-present members
	// are ignored.
	AddGroupMembers(ctx context.Context, groupID string, members []string) error

	// ListGroupsByMember retrieves all groups the member belongs to,
	// most recently created first.
	ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error)

	// CreateExpense persists a new expense with its splits.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, including its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves all expenses for a group, most
	// recently created first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SetSplitPaid marks the split belonging to memberID on the expense
	// as paid. It returns (false, nil) if the split was already paid and
	// ErrNotFound if no such split exists.
	SetSplitPaid(ctx context.Context, expenseID, memberID string) (changed bool, err error)

	// CreateBudget persists a new budget with its categories.
	CreateBudget(ctx context.Context, budget *models.Budget) error

	// GetBudget retrieves a budget by ID, including its categories.
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)

	// ListBudgetsByGroup retrieves all budgets for a group, most recently
	// created first.
	ListBudgetsByGroup(ctx context.Context, groupID string) ([]*models.Budget, error)

	// ApplySpend increments the named category's spent counter and the
	// budget's total spent by amount, as one atomic unit. It returns
	// ErrCategoryNotFound (and changes nothing) if the category does not
	// exist on the budget.
	ApplySpend(ctx context.Context, budgetID, category string, amount float64) error

	// CreateGoal persists a new savings goal.
	CreateGoal(ctx context.Context, goal *models.SavingsGoal) error

	// GetGoal retrieves a savings goal by ID, including its contributions.
	GetGoal(ctx context.Context, goalID string) (*models.SavingsGoal, error)

	// ListGoalsByGroup retrieves all savings goals for a group, most
	// recently created first.
	ListGoalsByGroup(ctx context.Context, groupID string) ([]*models.SavingsGoal, error)

	// AddContribution appends a contribution to the goal and increments
	// the goal's current amount by the same value, as one atomic unit.
	AddContribution(ctx context.Context, goalID string, contribution *models.Contribution) error

	// SumSpendByCategory recomputes a budget's spend from its attributed
	// expenses, keyed by category name. Used for drift detection.
	SumSpendByCategory(ctx context.Context, budgetID string) (map[string]float64, error)

	// SumContributions recomputes a goal's total from its contribution
	// records. Used for drift detection.
	SumContributions(ctx context.Context, goalID string) (float64, error)

	// Close releases any resources held by the store.
	Close() error
}
