package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// CreateBudget persists a new budget with its categories.
func (s *Store) CreateBudget(ctx context.Context, budget *models.Budget) error {
	// Generate IDs if not set
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	if budget.CreatedAt == 0 {
		budget.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (id, group_id, name, period, start_date, end_date, total_limit, total_spent, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID, budget.GroupID, budget.Name, string(budget.Period),
		budget.StartDate, budget.EndDate, budget.TotalLimit, budget.TotalSpent,
		budget.CreatedBy, budget.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}

	for i, cat := range budget.Categories {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO budget_categories (budget_id, name, limit_amount, spent, position) VALUES (?, ?, ?, ?, ?)",
			budget.ID, cat.Name, cat.Limit, cat.Spent, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert budget category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBudget retrieves a budget by ID, including its ordered categories.
func (s *Store) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	budget := &models.Budget{}
	var period string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, period, start_date, end_date, total_limit, total_spent, created_by, created_at
		 FROM budgets WHERE id = ?`,
		budgetID,
	).Scan(&budget.ID, &budget.GroupID, &budget.Name, &period,
		&budget.StartDate, &budget.EndDate, &budget.TotalLimit, &budget.TotalSpent,
		&budget.CreatedBy, &budget.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	budget.Period = models.Period(period)

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, limit_amount, spent FROM budget_categories WHERE budget_id = ? ORDER BY position",
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get budget categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.Name, &cat.Limit, &cat.Spent); err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		budget.Categories = append(budget.Categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget categories: %w", err)
	}

	return budget, nil
}

// ListBudgetsByGroup retrieves all budgets for a group, most recently created
// first.
func (s *Store) ListBudgetsByGroup(ctx context.Context, groupID string) ([]*models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM budgets WHERE group_id = ? ORDER BY created_at DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets by group: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan budget id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}

	budgets := make([]*models.Budget, 0, len(ids))
	for _, id := range ids {
		budget, err := s.GetBudget(ctx, id)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}

	return budgets, nil
}

// ApplySpend increments the named category's spent counter and the budget's
// total spent by amount, as one atomic unit. Both updates are SQL increments
// inside a single transaction, never a read followed by a write, so two
// concurrent ApplySpend calls against the same category both land.
func (s *Store) ApplySpend(ctx context.Context, budgetID, category string, amount float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE budget_categories SET spent = spent + ? WHERE budget_id = ? AND name = ?",
		amount, budgetID, category,
	)
	if err != nil {
		return fmt.Errorf("failed to update category spend: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing budget from a missing category.
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM budgets WHERE id = ?", budgetID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check budget existence: %w", err)
		}
		return fmt.Errorf("category %q on budget %s: %w", category, budgetID, storage.ErrCategoryNotFound)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE budgets SET total_spent = total_spent + ? WHERE id = ?",
		amount, budgetID,
	)
	if err != nil {
		return fmt.Errorf("failed to update total spend: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SumSpendByCategory recomputes a budget's spend from its attributed
// expenses, keyed by category name.
func (s *Store) SumSpendByCategory(ctx context.Context, budgetID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) FROM expenses
		 WHERE budget_id = ? AND category IS NOT NULL
		 GROUP BY category`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum spend by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan spend sum: %w", err)
		}
		sums[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spend sums: %w", err)
	}

	return sums, nil
}
