package calculator

import (
	"math"
	"testing"

	"github.com/microsave/microsave/internal/models"
)

func expense(payer string, amount float64, splits ...models.Split) *models.Expense {
	return &models.Expense{Payer: payer, Amount: amount, Splits: splits}
}

func balanceFor(t *testing.T, balances []MemberBalance, member string) MemberBalance {
	t.Helper()
	for _, b := range balances {
		if b.Member == member {
			return b
		}
	}
	t.Fatalf("no balance for member %s", member)
	return MemberBalance{}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestGroupBalances_Empty(t *testing.T) {
	balances, edges := GroupBalances(nil)
	if len(balances) != 0 {
		t.Errorf("expected no balances, got %d", len(balances))
	}
	if len(edges) != 0 {
		t.Errorf("expected no debt edges, got %d", len(edges))
	}
}

func TestGroupBalances_SingleExpense(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 40,
			models.Split{Member: "alice", Amount: 20},
			models.Split{Member: "bob", Amount: 20},
		),
	}

	balances, edges := GroupBalances(expenses)

	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}

	alice := balanceFor(t, balances, "alice")
	if !almostEqual(alice.NetBalance, 20) || !almostEqual(alice.TotalPaid, 40) || !almostEqual(alice.TotalOwed, 20) {
		t.Errorf("unexpected alice balance: %+v", alice)
	}

	bob := balanceFor(t, balances, "bob")
	if !almostEqual(bob.NetBalance, -20) {
		t.Errorf("expected bob net -20, got %v", bob.NetBalance)
	}

	if len(edges) != 1 {
		t.Fatalf("expected 1 debt edge, got %d", len(edges))
	}
	if edges[0].From != "bob" || edges[0].To != "alice" || !almostEqual(edges[0].Amount, 20) {
		t.Errorf("unexpected debt edge: %+v", edges[0])
	}
}

func TestGroupBalances_PaidSplitSettles(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 40,
			models.Split{Member: "alice", Amount: 20},
			models.Split{Member: "bob", Amount: 20, Paid: true},
		),
	}

	balances, edges := GroupBalances(expenses)

	alice := balanceFor(t, balances, "alice")
	bob := balanceFor(t, balances, "bob")
	if !almostEqual(alice.NetBalance, 0) {
		t.Errorf("expected alice net 0 after settlement, got %v", alice.NetBalance)
	}
	if !almostEqual(bob.NetBalance, 0) {
		t.Errorf("expected bob net 0 after settlement, got %v", bob.NetBalance)
	}
	if len(edges) != 0 {
		t.Errorf("expected no debt edges after settlement, got %+v", edges)
	}
}

func TestGroupBalances_PayerOwnPaidSplitIgnored(t *testing.T) {
	// The payer's own split marked paid must not double count.
	expenses := []*models.Expense{
		expense("alice", 30,
			models.Split{Member: "alice", Amount: 15, Paid: true},
			models.Split{Member: "bob", Amount: 15},
		),
	}

	balances, _ := GroupBalances(expenses)

	alice := balanceFor(t, balances, "alice")
	if !almostEqual(alice.TotalPaid, 30) || !almostEqual(alice.TotalOwed, 15) {
		t.Errorf("unexpected alice balance: %+v", alice)
	}
}

func TestGroupBalances_MultipleExpenses(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 60,
			models.Split{Member: "alice", Amount: 20},
			models.Split{Member: "bob", Amount: 20},
			models.Split{Member: "carol", Amount: 20},
		),
		expense("bob", 30,
			models.Split{Member: "alice", Amount: 10},
			models.Split{Member: "bob", Amount: 10},
			models.Split{Member: "carol", Amount: 10},
		),
	}

	balances, edges := GroupBalances(expenses)

	alice := balanceFor(t, balances, "alice")
	bob := balanceFor(t, balances, "bob")
	carol := balanceFor(t, balances, "carol")
	if !almostEqual(alice.NetBalance, 30) {
		t.Errorf("expected alice net 30, got %v", alice.NetBalance)
	}
	if !almostEqual(bob.NetBalance, 0) {
		t.Errorf("expected bob net 0, got %v", bob.NetBalance)
	}
	if !almostEqual(carol.NetBalance, -30) {
		t.Errorf("expected carol net -30, got %v", carol.NetBalance)
	}

	if len(edges) != 1 {
		t.Fatalf("expected 1 debt edge, got %d: %+v", len(edges), edges)
	}
	if edges[0].From != "carol" || edges[0].To != "alice" || !almostEqual(edges[0].Amount, 30) {
		t.Errorf("unexpected debt edge: %+v", edges[0])
	}
}

func TestGroupBalances_GreedyMatching(t *testing.T) {
	// Two creditors, two debtors, uneven amounts. The largest debt pairs
	// with the largest credit first.
	expenses := []*models.Expense{
		expense("alice", 50,
			models.Split{Member: "carol", Amount: 50},
		),
		expense("bob", 20,
			models.Split{Member: "dave", Amount: 20},
		),
	}

	balances, edges := GroupBalances(expenses)
	if len(balances) != 4 {
		t.Fatalf("expected 4 balances, got %d", len(balances))
	}

	if len(edges) != 2 {
		t.Fatalf("expected 2 debt edges, got %d: %+v", len(edges), edges)
	}
	if edges[0].From != "carol" || edges[0].To != "alice" || !almostEqual(edges[0].Amount, 50) {
		t.Errorf("unexpected first edge: %+v", edges[0])
	}
	if edges[1].From != "dave" || edges[1].To != "bob" || !almostEqual(edges[1].Amount, 20) {
		t.Errorf("unexpected second edge: %+v", edges[1])
	}
}

func TestGroupBalances_NetZeroSum(t *testing.T) {
	expenses := []*models.Expense{
		expense("alice", 33.33,
			models.Split{Member: "alice", Amount: 11.11},
			models.Split{Member: "bob", Amount: 11.11},
			models.Split{Member: "carol", Amount: 11.11},
		),
		expense("carol", 10,
			models.Split{Member: "bob", Amount: 5},
			models.Split{Member: "carol", Amount: 5},
		),
	}

	balances, _ := GroupBalances(expenses)

	var sum float64
	for _, b := range balances {
		sum += b.NetBalance
	}
	if !almostEqual(sum, 0) {
		t.Errorf("expected net balances to sum to zero, got %v", sum)
	}
}
