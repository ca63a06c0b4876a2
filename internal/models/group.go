package models

// Group is the authorization and ownership scope for all financial entities.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Flat 4B", "Ski Trip").
	Name string `json:"name"`

	// Description is an optional free-text description.
	Description string `json:"description"`

	// Admin is the member ID of the group administrator.
	// The admin is always present in Members.
	Admin string `json:"admin"`

	// Members is the set of member IDs belonging to this group.
	// Membership is append-only: members are added by the admin and
	// never removed in the current design.
	Members []string `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// HasMember reports whether memberID belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m == memberID {
			return true
		}
	}
	return false
}
