// Package reconcile audits the derived counters against their source
// records. The counters (budget category/total spend, goal current amount)
// are maintained transactionally alongside their sources and should never
// drift; this package makes that claim checkable instead of assumed.
//
// Reconciliation only detects and reports drift. It never writes: the core
// has no decrement path, and repairing a counter is an operator decision.
package reconcile

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/microsave/microsave/internal/storage"
)

// driftTolerance absorbs float accumulation noise; anything larger is
// reported.
const driftTolerance = 1e-6

// Drift reports one counter that no longer matches its source records.
type Drift struct {
	Entity   string  `json:"entity"` // "budget" or "savings_goal"
	EntityID string  `json:"entityId"`
	Field    string  `json:"field"`    // e.g. "total_spent", "category:food", "current_amount"
	Stored   float64 `json:"stored"`   // counter value as persisted
	Computed float64 `json:"computed"` // value recomputed from source records
}

func (d Drift) String() string {
	return fmt.Sprintf("%s %s %s: stored %v, computed %v", d.Entity, d.EntityID, d.Field, d.Stored, d.Computed)
}

// Reconciler recomputes derived counters from source records.
type Reconciler struct {
	store storage.Store
}

// New creates a Reconciler backed by the given store.
func New(store storage.Store) *Reconciler {
	return &Reconciler{store: store}
}

// CheckBudget verifies both budget invariants: every category spent counter
// equals the sum of expenses attributed to it, and the budget total equals
// the sum of the category counters. Expenses attributed to a category the
// budget does not have are ignored, matching the non-rollback attribution
// policy under which they were recorded.
func (r *Reconciler) CheckBudget(ctx context.Context, budgetID string) ([]Drift, error) {
	budget, err := r.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	sums, err := r.store.SumSpendByCategory(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	var categorySum float64
	for _, cat := range budget.Categories {
		categorySum += cat.Spent
		computed := sums[cat.Name]
		if math.Abs(cat.Spent-computed) > driftTolerance {
			drifts = append(drifts, Drift{
				Entity:   "budget",
				EntityID: budgetID,
				Field:    "category:" + cat.Name,
				Stored:   cat.Spent,
				Computed: computed,
			})
		}
	}

	if math.Abs(budget.TotalSpent-categorySum) > driftTolerance {
		drifts = append(drifts, Drift{
			Entity:   "budget",
			EntityID: budgetID,
			Field:    "total_spent",
			Stored:   budget.TotalSpent,
			Computed: categorySum,
		})
	}

	return drifts, nil
}

// CheckGoal verifies that the goal's current amount equals the sum of its
// contribution records.
func (r *Reconciler) CheckGoal(ctx context.Context, goalID string) ([]Drift, error) {
	goal, err := r.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	computed, err := r.store.SumContributions(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if math.Abs(goal.CurrentAmount-computed) > driftTolerance {
		return []Drift{{
			Entity:   "savings_goal",
			EntityID: goalID,
			Field:    "current_amount",
			Stored:   goal.CurrentAmount,
			Computed: computed,
		}}, nil
	}

	return nil, nil
}

// CheckGroup audits every budget and goal in the group, fanning the checks
// out concurrently.
func (r *Reconciler) CheckGroup(ctx context.Context, groupID string) ([]Drift, error) {
	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	budgets, err := r.store.ListBudgetsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	goals, err := r.store.ListGoalsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	budgetDrifts := make([][]Drift, len(budgets))
	goalDrifts := make([][]Drift, len(goals))

	for i, budget := range budgets {
		g.Go(func() error {
			drifts, err := r.CheckBudget(ctx, budget.ID)
			if err != nil {
				return err
			}
			budgetDrifts[i] = drifts
			return nil
		})
	}
	for i, goal := range goals {
		g.Go(func() error {
			drifts, err := r.CheckGoal(ctx, goal.ID)
			if err != nil {
				return err
			}
			goalDrifts[i] = drifts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Drift
	for _, d := range budgetDrifts {
		all = append(all, d...)
	}
	for _, d := range goalDrifts {
		all = append(all, d...)
	}
	return all, nil
}
