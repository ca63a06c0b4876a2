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

// CreateGoal persists a new savings goal.
func (s *Store) CreateGoal(ctx context.Context, goal *models.SavingsGoal) error {
	// Generate IDs if not set
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.CreatedAt == 0 {
		goal.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goals (id, group_id, name, description, target_amount, current_amount, target_date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.GroupID, goal.Name, goal.Description,
		goal.TargetAmount, goal.CurrentAmount, goal.TargetDate,
		goal.CreatedBy, goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert savings goal: %w", err)
	}

	return nil
}

// GetGoal retrieves a savings goal by ID, including its contributions in
// append order.
func (s *Store) GetGoal(ctx context.Context, goalID string) (*models.SavingsGoal, error) {
	goal := &models.SavingsGoal{}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, description, target_amount, current_amount, target_date, created_by, created_at
		 FROM savings_goals WHERE id = ?`,
		goalID,
	).Scan(&goal.ID, &goal.GroupID, &goal.Name, &goal.Description,
		&goal.TargetAmount, &goal.CurrentAmount, &goal.TargetDate,
		&goal.CreatedBy, &goal.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("savings goal %s: %w", goalID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get savings goal: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT member, amount, date FROM contributions WHERE goal_id = ? ORDER BY rowid",
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.Member, &c.Amount, &c.Date); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		goal.Contributions = append(goal.Contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}

	return goal, nil
}

// ListGoalsByGroup retrieves all savings goals for a group, most recently
// created first.
func (s *Store) ListGoalsByGroup(ctx context.Context, groupID string) ([]*models.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM savings_goals WHERE group_id = ? ORDER BY created_at DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals by group: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan goal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate savings goals: %w", err)
	}

	goals := make([]*models.SavingsGoal, 0, len(ids))
	for _, id := range ids {
		goal, err := s.GetGoal(ctx, id)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	return goals, nil
}

// AddContribution appends a contribution to the goal and increments the
// goal's current amount by the same value, as one atomic unit.
func (s *Store) AddContribution(ctx context.Context, goalID string, contribution *models.Contribution) error {
	if contribution.Date == 0 {
		contribution.Date = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE savings_goals SET current_amount = current_amount + ? WHERE id = ?",
		contribution.Amount, goalID,
	)
	if err != nil {
		return fmt.Errorf("failed to update current amount: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("savings goal %s: %w", goalID, storage.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO contributions (goal_id, member, amount, date) VALUES (?, ?, ?, ?)",
		goalID, contribution.Member, contribution.Amount, contribution.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SumContributions recomputes a goal's total from its contribution records.
func (s *Store) SumContributions(ctx context.Context, goalID string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE goal_id = ?",
		goalID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum contributions: %w", err)
	}
	return total, nil
}
