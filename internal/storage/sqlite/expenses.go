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

// CreateExpense persists a new expense with its splits.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var budgetID, category interface{}
	if expense.BudgetID != "" {
		budgetID = expense.BudgetID
	}
	if expense.Category != "" {
		category = expense.Category
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, title, description, amount, type, payer, budget_id, category, due_date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Title, expense.Description, expense.Amount,
		expense.Type, expense.Payer, budgetID, category, expense.DueDate,
		expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member, amount, paid, position) VALUES (?, ?, ?, ?, ?)",
			expense.ID, split.Member, split.Amount, split.Paid, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var budgetID, category sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, description, amount, type, payer, budget_id, category, due_date, created_by, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Title, &expense.Description,
		&expense.Amount, &expense.Type, &expense.Payer, &budgetID, &category,
		&expense.DueDate, &expense.CreatedBy, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if budgetID.Valid {
		expense.BudgetID = budgetID.String
	}
	if category.Valid {
		expense.Category = category.String
	}

	splits, err := s.expenseSplits(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Splits = splits

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses for a group, most recently
// created first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM expenses WHERE group_id = ? ORDER BY created_at DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, nil
}

// SetSplitPaid marks the split belonging to memberID on the expense as paid.
// It returns (false, nil) if the split was already paid so the service layer
// can apply its settlement policy, and ErrNotFound if no such split exists.
func (s *Store) SetSplitPaid(ctx context.Context, expenseID, memberID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expense_splits SET paid = 1 WHERE expense_id = ? AND member = ? AND paid = 0",
		expenseID, memberID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark split paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Nothing changed: either the split is already paid or it never existed.
	var paid int
	err = s.db.QueryRowContext(ctx,
		"SELECT paid FROM expense_splits WHERE expense_id = ? AND member = ?",
		expenseID, memberID,
	).Scan(&paid)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("split for member %s on expense %s: %w", memberID, expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check split: %w", err)
	}

	return false, nil
}

func (s *Store) expenseSplits(ctx context.Context, expenseID string) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member, amount, paid FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.Member, &split.Amount, &split.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return splits, nil
}
