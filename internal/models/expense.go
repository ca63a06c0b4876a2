package models

// Split is a per-member owed-amount line item attached to an Expense.
// Splits are fixed in structure after the expense is created; only the
// Paid flag changes, when the member settles up.
type Split struct {
	// Member is the ID of the group member who owes this share.
	Member string `json:"member"`

	// Amount is the owed amount (non-negative).
	Amount float64 `json:"amount"`

	// Paid reports whether this share has been settled.
	Paid bool `json:"paid"`
}

// Expense records a monetary event inside a group: who paid, and who owes
// what. The total Amount is immutable after creation.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// Title is the human-readable name for the expense.
	Title string `json:"title"`

	// Description is an optional free-text description.
	Description string `json:"description"`

	// Amount is the total expense amount.
	Amount float64 `json:"amount"`

	// Type categorizes the expense (e.g., "shared", "recurring").
	Type string `json:"type"`

	// Payer is the member ID of whoever paid the full amount.
	Payer string `json:"payer"`

	// BudgetID optionally attributes this expense to a budget.
	// When both BudgetID and Category are set, recording the expense
	// also applies the amount to that budget's spend counters.
	BudgetID string `json:"budgetId"`

	// Category is the budget category name the amount counts against.
	Category string `json:"category"`

	// Splits is the ordered list of per-member obligations.
	Splits []Split `json:"splits"`

	// DueDate is an optional Unix timestamp by which splits should be
	// settled. Zero means no due date.
	DueDate int64 `json:"dueDate"`

	// CreatedBy is the member ID who recorded the expense.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}

// SplitFor returns the split belonging to memberID, or nil if the member
// has no share on this expense.
func (e *Expense) SplitFor(memberID string) *Split {
	for i := range e.Splits {
		if e.Splits[i].Member == memberID {
			return &e.Splits[i]
		}
	}
	return nil
}
