package models

// Period is the recurrence window a budget covers.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is one of the known budget periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Category is a named sub-limit within a budget with its own running
// spend counter. Spent only ever increases, via attributed expenses.
type Category struct {
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
	Spent float64 `json:"spent"`
}

// Budget tracks category-level spending limits for a group over a period.
// The category set is fixed at creation; TotalLimit is the sum of category
// limits computed once at creation time, and TotalSpent must always equal
// the sum of the categories' Spent counters.
type Budget struct {
	// ID is the unique identifier for the budget (UUID format).
	ID string `json:"id"`

	// GroupID is the group this budget belongs to.
	GroupID string `json:"groupId"`

	// Name is the display name of the budget.
	Name string `json:"name"`

	// Period is the recurrence window (weekly, monthly, yearly).
	Period Period `json:"period"`

	// StartDate and EndDate bound the budget window (Unix timestamps,
	// StartDate < EndDate).
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`

	// TotalLimit is the sum of category limits, fixed at creation.
	TotalLimit float64 `json:"totalLimit"`

	// TotalSpent is the running sum of all categories' Spent counters.
	TotalSpent float64 `json:"totalSpent"`

	// Categories is the ordered, immutable category list.
	Categories []Category `json:"categories"`

	// CreatedBy is the member ID who created the budget.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is the Unix timestamp when the budget was created.
	CreatedAt int64 `json:"createdAt"`
}

// CategoryByName returns the category with the given name, or nil.
// Matching is exact.
func (b *Budget) CategoryByName(name string) *Category {
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i]
		}
	}
	return nil
}
