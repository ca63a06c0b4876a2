package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage/sqlite"
)

// recordingPublisher captures audit events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) byAction(action string) []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []audit.Event
	for _, e := range p.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires all services over a temp sqlite store.
type testEnv struct {
	store    *sqlite.Store
	audit    *recordingPublisher
	groups   *GroupService
	expenses *ExpenseService
	budgets  *BudgetService
	savings  *SavingsService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithOptions(t, DefaultExpenseOptions())
}

func newTestEnvWithOptions(t *testing.T, opts ExpenseOptions) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "microsave-service-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pub := &recordingPublisher{}
	guard := NewGuard(store)

	return &testEnv{
		store:    store,
		audit:    pub,
		groups:   NewGroupService(store, guard, pub),
		expenses: NewExpenseService(store, guard, pub, opts),
		budgets:  NewBudgetService(store, guard, pub),
		savings:  NewSavingsService(store, guard, pub),
	}
}

// seedGroup creates a group with admin as first member and adds the rest.
func (env *testEnv) seedGroup(t *testing.T, admin string, others ...string) *models.Group {
	t.Helper()

	group, err := env.groups.CreateGroup(context.Background(), admin, "Test Group", "")
	require.NoError(t, err)
	if len(others) > 0 {
		group, err = env.groups.AddMembers(context.Background(), admin, group.ID, others)
		require.NoError(t, err)
	}
	return group
}

// seedBudget creates a single-category budget for the group.
func (env *testEnv) seedBudget(t *testing.T, actor, groupID string, categories ...CategoryInput) *models.Budget {
	t.Helper()

	budget, err := env.budgets.CreateBudget(context.Background(), actor, CreateBudgetInput{
		GroupID:    groupID,
		Name:       "Groceries",
		Categories: categories,
		Period:     models.PeriodMonthly,
		StartDate:  1000,
		EndDate:    2000,
	})
	require.NoError(t, err)
	return budget
}
