package models

// Contribution is a single deposit event against a savings goal.
// Contributions are append-only.
type Contribution struct {
	// Member is the ID of the contributing group member.
	Member string `json:"member"`

	// Amount is the contributed amount (positive).
	Amount float64 `json:"amount"`

	// Date is the Unix timestamp of the contribution.
	Date int64 `json:"date"`
}

// SavingsGoal tracks group progress toward a savings target.
// CurrentAmount must always equal the sum of contribution amounts; it grows
// monotonically and may exceed TargetAmount (overfunding is allowed).
type SavingsGoal struct {
	// ID is the unique identifier for the goal (UUID format).
	ID string `json:"id"`

	// GroupID is the group this goal belongs to.
	GroupID string `json:"groupId"`

	// Name is the display name of the goal.
	Name string `json:"name"`

	// Description is an optional free-text description.
	Description string `json:"description"`

	// TargetAmount is the amount the group is saving toward.
	TargetAmount float64 `json:"targetAmount"`

	// CurrentAmount is the running sum of contributions.
	CurrentAmount float64 `json:"currentAmount"`

	// TargetDate is an optional Unix timestamp deadline. Zero means none.
	TargetDate int64 `json:"targetDate"`

	// Contributions is the ordered, append-only contribution list.
	Contributions []Contribution `json:"contributions"`

	// CreatedBy is the member ID who created the goal.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is the Unix timestamp when the goal was created.
	CreatedAt int64 `json:"createdAt"`
}

// Progress returns the goal's completion percentage for display, clamped
// to 100. The clamped value is derived on read and never persisted, so an
// overfunded goal still reports its true CurrentAmount.
func (g *SavingsGoal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := g.CurrentAmount / g.TargetAmount * 100
	if pct > 100 {
		return 100
	}
	return pct
}
