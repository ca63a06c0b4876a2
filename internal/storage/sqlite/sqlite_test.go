package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "microsave-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func seedGroup(t *testing.T, store *Store, members ...string) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:    "Test Group",
		Admin:   members[0],
		Members: members,
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and timestamp", func(t *testing.T) {
		group := &models.Group{
			Name:    "Roommates",
			Admin:   "alice",
			Members: []string{"alice", "bob"},
		}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		retrieved, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if retrieved.Admin != "alice" {
			t.Errorf("Admin mismatch: got %s, want alice", retrieved.Admin)
		}
		if len(retrieved.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(retrieved.Members))
		}
	})

	t.Run("GetGroup returns ErrNotFound for missing group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddGroupMembers appends and ignores duplicates", func(t *testing.T) {
		group := seedGroup(t, store, "alice")

		if err := store.AddGroupMembers(ctx, group.ID, []string{"bob", "alice"}); err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}

		retrieved, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(retrieved.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(retrieved.Members))
		}
	})

	t.Run("AddGroupMembers fails for missing group", func(t *testing.T) {
		err := store.AddGroupMembers(ctx, "nonexistent-id", []string{"bob"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsByMember returns only the member's groups", func(t *testing.T) {
		g1 := seedGroup(t, store, "carol", "dave")
		seedGroup(t, store, "erin")

		groups, err := store.ListGroupsByMember(ctx, "carol")
		if err != nil {
			t.Fatalf("ListGroupsByMember failed: %v", err)
		}
		if len(groups) != 1 {
			t.Fatalf("Expected 1 group, got %d", len(groups))
		}
		if groups[0].ID != g1.ID {
			t.Errorf("Group mismatch: got %s, want %s", groups[0].ID, g1.ID)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store, "alice", "bob")

	t.Run("CreateExpense stores splits in order", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:   group.ID,
			Title:     "Dinner",
			Amount:    50,
			Payer:     "alice",
			CreatedBy: "alice",
			Splits: []models.Split{
				{Member: "bob", Amount: 30},
				{Member: "alice", Amount: 20},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		retrieved, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(retrieved.Splits) != 2 {
			t.Fatalf("Expected 2 splits, got %d", len(retrieved.Splits))
		}
		if retrieved.Splits[0].Member != "bob" || retrieved.Splits[1].Member != "alice" {
			t.Errorf("Splits out of order: %+v", retrieved.Splits)
		}
	})

	t.Run("ListExpensesByGroup orders most recent first", func(t *testing.T) {
		first := &models.Expense{GroupID: group.ID, Title: "First", Amount: 10, Payer: "alice", CreatedBy: "alice", CreatedAt: 100}
		second := &models.Expense{GroupID: group.ID, Title: "Second", Amount: 20, Payer: "alice", CreatedBy: "alice", CreatedAt: 200}
		if err := store.CreateExpense(ctx, first); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.CreateExpense(ctx, second); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		for i := 1; i < len(expenses); i++ {
			if expenses[i-1].CreatedAt < expenses[i].CreatedAt {
				t.Errorf("Expenses not in descending order at index %d", i)
			}
		}
	})

	t.Run("ListExpensesByGroup breaks timestamp ties by insertion order", func(t *testing.T) {
		group := seedGroup(t, store, "carol")
		titles := []string{"First", "Second", "Third"}
		for _, title := range titles {
			expense := &models.Expense{
				GroupID:   group.ID,
				Title:     title,
				Amount:    10,
				Payer:     "carol",
				CreatedBy: "carol",
				CreatedAt: 500,
			}
			if err := store.CreateExpense(ctx, expense); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != len(titles) {
			t.Fatalf("Expected %d expenses, got %d", len(titles), len(expenses))
		}
		for i, want := range []string{"Third", "Second", "First"} {
			if expenses[i].Title != want {
				t.Errorf("Expected %s at index %d, got %s", want, i, expenses[i].Title)
			}
		}
	})

	t.Run("SetSplitPaid flips once then reports unchanged", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:   group.ID,
			Title:     "Taxi",
			Amount:    20,
			Payer:     "alice",
			CreatedBy: "alice",
			Splits:    []models.Split{{Member: "bob", Amount: 10}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		changed, err := store.SetSplitPaid(ctx, expense.ID, "bob")
		if err != nil {
			t.Fatalf("SetSplitPaid failed: %v", err)
		}
		if !changed {
			t.Error("Expected first settle to change the split")
		}

		changed, err = store.SetSplitPaid(ctx, expense.ID, "bob")
		if err != nil {
			t.Fatalf("SetSplitPaid failed: %v", err)
		}
		if changed {
			t.Error("Expected repeat settle to change nothing")
		}

		retrieved, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !retrieved.Splits[0].Paid {
			t.Error("Expected split to be paid")
		}
	})

	t.Run("SetSplitPaid returns ErrNotFound for missing split", func(t *testing.T) {
		expense := &models.Expense{GroupID: group.ID, Title: "Coffee", Amount: 5, Payer: "alice", CreatedBy: "alice"}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		_, err := store.SetSplitPaid(ctx, expense.ID, "nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestBudgets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store, "alice", "bob")

	newBudget := func(t *testing.T) *models.Budget {
		t.Helper()
		budget := &models.Budget{
			GroupID:    group.ID,
			Name:       "Groceries",
			Period:     models.PeriodMonthly,
			StartDate:  1000,
			EndDate:    2000,
			TotalLimit: 150,
			Categories: []models.Category{
				{Name: "food", Limit: 100},
				{Name: "household", Limit: 50},
			},
			CreatedBy: "alice",
		}
		if err := store.CreateBudget(ctx, budget); err != nil {
			t.Fatalf("CreateBudget failed: %v", err)
		}
		return budget
	}

	t.Run("CreateBudget stores categories in order", func(t *testing.T) {
		budget := newBudget(t)

		retrieved, err := store.GetBudget(ctx, budget.ID)
		if err != nil {
			t.Fatalf("GetBudget failed: %v", err)
		}
		if len(retrieved.Categories) != 2 {
			t.Fatalf("Expected 2 categories, got %d", len(retrieved.Categories))
		}
		if retrieved.Categories[0].Name != "food" || retrieved.Categories[1].Name != "household" {
			t.Errorf("Categories out of order: %+v", retrieved.Categories)
		}
		if retrieved.TotalSpent != 0 {
			t.Errorf("Expected zero initial spend, got %v", retrieved.TotalSpent)
		}
	})

	t.Run("ApplySpend moves category and total together", func(t *testing.T) {
		budget := newBudget(t)

		if err := store.ApplySpend(ctx, budget.ID, "food", 20); err != nil {
			t.Fatalf("ApplySpend failed: %v", err)
		}

		retrieved, err := store.GetBudget(ctx, budget.ID)
		if err != nil {
			t.Fatalf("GetBudget failed: %v", err)
		}
		if got := retrieved.CategoryByName("food").Spent; got != 20 {
			t.Errorf("Expected food spent 20, got %v", got)
		}
		if retrieved.TotalSpent != 20 {
			t.Errorf("Expected total spent 20, got %v", retrieved.TotalSpent)
		}
	})

	t.Run("ApplySpend unknown category changes nothing", func(t *testing.T) {
		budget := newBudget(t)

		err := store.ApplySpend(ctx, budget.ID, "transport", 10)
		if !errors.Is(err, storage.ErrCategoryNotFound) {
			t.Fatalf("Expected ErrCategoryNotFound, got %v", err)
		}

		retrieved, err := store.GetBudget(ctx, budget.ID)
		if err != nil {
			t.Fatalf("GetBudget failed: %v", err)
		}
		if retrieved.TotalSpent != 0 {
			t.Errorf("Expected total spent unchanged, got %v", retrieved.TotalSpent)
		}
	})

	t.Run("ApplySpend missing budget returns ErrNotFound", func(t *testing.T) {
		err := store.ApplySpend(ctx, "nonexistent-id", "food", 10)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Concurrent ApplySpend loses no updates", func(t *testing.T) {
		budget := newBudget(t)

		// Each worker runs on its own pooled connection, so contending
		// writers must wait on the database lock rather than fail.
		const workers = 32
		const callsPerWorker = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers*callsPerWorker)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < callsPerWorker; j++ {
					errs <- store.ApplySpend(ctx, budget.ID, "food", 10)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("ApplySpend failed: %v", err)
			}
		}

		const want = 10 * workers * callsPerWorker
		retrieved, err := store.GetBudget(ctx, budget.ID)
		if err != nil {
			t.Fatalf("GetBudget failed: %v", err)
		}
		if got := retrieved.CategoryByName("food").Spent; got != want {
			t.Errorf("Expected food spent %d, got %v", want, got)
		}
		if retrieved.TotalSpent != want {
			t.Errorf("Expected total spent %d, got %v", want, retrieved.TotalSpent)
		}
	})

	t.Run("SumSpendByCategory recomputes from expenses", func(t *testing.T) {
		budget := newBudget(t)

		for _, amount := range []float64{20, 30} {
			expense := &models.Expense{
				GroupID:   group.ID,
				Title:     "Shop",
				Amount:    amount,
				Payer:     "alice",
				CreatedBy: "alice",
				BudgetID:  budget.ID,
				Category:  "food",
			}
			if err := store.CreateExpense(ctx, expense); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		sums, err := store.SumSpendByCategory(ctx, budget.ID)
		if err != nil {
			t.Fatalf("SumSpendByCategory failed: %v", err)
		}
		if sums["food"] != 50 {
			t.Errorf("Expected food sum 50, got %v", sums["food"])
		}
	})
}

func TestGoals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store, "alice", "bob")

	newGoal := func(t *testing.T) *models.SavingsGoal {
		t.Helper()
		goal := &models.SavingsGoal{
			GroupID:      group.ID,
			Name:         "Vacation",
			TargetAmount: 100,
			CreatedBy:    "alice",
		}
		if err := store.CreateGoal(ctx, goal); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}
		return goal
	}

	t.Run("AddContribution moves the counter with the record", func(t *testing.T) {
		goal := newGoal(t)

		for _, amount := range []float64{60, 60} {
			err := store.AddContribution(ctx, goal.ID, &models.Contribution{Member: "bob", Amount: amount})
			if err != nil {
				t.Fatalf("AddContribution failed: %v", err)
			}
		}

		retrieved, err := store.GetGoal(ctx, goal.ID)
		if err != nil {
			t.Fatalf("GetGoal failed: %v", err)
		}
		if retrieved.CurrentAmount != 120 {
			t.Errorf("Expected current amount 120, got %v", retrieved.CurrentAmount)
		}
		if len(retrieved.Contributions) != 2 {
			t.Errorf("Expected 2 contributions, got %d", len(retrieved.Contributions))
		}

		sum, err := store.SumContributions(ctx, goal.ID)
		if err != nil {
			t.Fatalf("SumContributions failed: %v", err)
		}
		if sum != retrieved.CurrentAmount {
			t.Errorf("Counter %v does not match contribution sum %v", retrieved.CurrentAmount, sum)
		}
	})

	t.Run("AddContribution missing goal returns ErrNotFound", func(t *testing.T) {
		err := store.AddContribution(ctx, "nonexistent-id", &models.Contribution{Member: "bob", Amount: 10})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGoalsByGroup orders most recent first", func(t *testing.T) {
		old := &models.SavingsGoal{GroupID: group.ID, Name: "Old", TargetAmount: 10, CreatedBy: "alice", CreatedAt: 100}
		recent := &models.SavingsGoal{GroupID: group.ID, Name: "Recent", TargetAmount: 10, CreatedBy: "alice", CreatedAt: 200}
		if err := store.CreateGoal(ctx, old); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}
		if err := store.CreateGoal(ctx, recent); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}

		goals, err := store.ListGoalsByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGoalsByGroup failed: %v", err)
		}
		for i := 1; i < len(goals); i++ {
			if goals[i-1].CreatedAt < goals[i].CreatedAt {
				t.Errorf("Goals not in descending order at index %d", i)
			}
		}
	})
}
