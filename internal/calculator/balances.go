// Package calculator provides pure balance computations over a group's
// expenses. It has no storage or service dependencies so the arithmetic can
// be tested in isolation.
package calculator

import (
	"sort"

	"github.com/microsave/microsave/internal/models"
)

// settleEpsilon absorbs floating point noise when matching debts.
const settleEpsilon = 0.01

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	Member     string  `json:"member"`
	NetBalance float64 `json:"netBalance"` // Positive = owed money, Negative = owes money
	TotalPaid  float64 `json:"totalPaid"`  // Expense payments plus settled splits
	TotalOwed  float64 `json:"totalOwed"`  // Split obligations plus settlements received
}

// DebtEdge represents a debt from one member to another.
type DebtEdge struct {
	From   string  `json:"from"` // Member who owes
	To     string  `json:"to"`   // Member who is owed
	Amount float64 `json:"amount"`
}

// GroupBalances computes per-member balances and a simplified debt matrix
// from a group's expenses.
//
// Algorithm:
//   - For each expense: the payer contributed the full amount, each split
//     member owes their split amount.
//   - A paid split is a settlement: the debtor's balance improves by the
//     split amount and the payer's decreases, so settled shares drop out of
//     the debt matrix.
//   - net_balance = total_paid - total_owed.
//   - The debt matrix is simplified with greedy matching of the largest
//     remaining debts against the largest remaining credits.
func GroupBalances(expenses []*models.Expense) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)

	ensure := func(member string) *MemberBalance {
		bal, ok := balances[member]
		if !ok {
			bal = &MemberBalance{Member: member}
			balances[member] = bal
		}
		return bal
	}

	for _, expense := range expenses {
		if expense.Payer == "" {
			continue
		}

		ensure(expense.Payer).TotalPaid += expense.Amount

		for _, split := range expense.Splits {
			ensure(split.Member).TotalOwed += split.Amount

			// A settled split is a payment from the split member
			// back to the payer.
			if split.Paid && split.Member != expense.Payer {
				ensure(split.Member).TotalPaid += split.Amount
				ensure(expense.Payer).TotalOwed += split.Amount
			}
		}
	}

	// Compute net balances and order members for deterministic output.
	members := make([]string, 0, len(balances))
	for member, bal := range balances {
		bal.NetBalance = bal.TotalPaid - bal.TotalOwed
		members = append(members, member)
	}
	sort.Strings(members)

	memberBalances := make([]MemberBalance, 0, len(members))
	var debtors, creditors []*MemberBalance
	for _, member := range members {
		bal := balances[member]
		memberBalances = append(memberBalances, *bal)
		if bal.NetBalance < -settleEpsilon {
			debtors = append(debtors, bal)
		} else if bal.NetBalance > settleEpsilon {
			creditors = append(creditors, bal)
		}
	}

	// Greedy matching: largest debts against largest credits.
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].NetBalance < debtors[j].NetBalance })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].NetBalance > creditors[j].NetBalance })

	debtorRemaining := make(map[string]float64, len(debtors))
	creditorRemaining := make(map[string]float64, len(creditors))
	for _, d := range debtors {
		debtorRemaining[d.Member] = -d.NetBalance
	}
	for _, c := range creditors {
		creditorRemaining[c.Member] = c.NetBalance
	}

	var debtEdges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := debtors[i].Member
		creditor := creditors[j].Member

		amount := debtorRemaining[debtor]
		if creditorRemaining[creditor] < amount {
			amount = creditorRemaining[creditor]
		}

		if amount > settleEpsilon {
			debtEdges = append(debtEdges, DebtEdge{From: debtor, To: creditor, Amount: amount})
		}

		debtorRemaining[debtor] -= amount
		creditorRemaining[creditor] -= amount

		if debtorRemaining[debtor] < settleEpsilon {
			i++
		}
		if creditorRemaining[creditor] < settleEpsilon {
			j++
		}
	}

	return memberBalances, debtEdges
}
