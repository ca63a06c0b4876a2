package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microsave/microsave/internal/audit"
	"github.com/microsave/microsave/internal/calculator"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// GroupService owns the group aggregate root: creation, membership and
// group-level summaries.
type GroupService struct {
	store storage.Store
	guard *Guard
	audit audit.Publisher
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, guard *Guard, pub audit.Publisher) *GroupService {
	return &GroupService{store: store, guard: guard, audit: pub}
}

// CreateGroup creates a new group with the actor as admin and sole member.
func (s *GroupService) CreateGroup(ctx context.Context, actorID, name, description string) (*models.Group, error) {
	slog.InfoContext(ctx, "CreateGroup request received", "actor_id", actorID, "name", name)

	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", ErrValidation)
	}
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required: %w", ErrValidation)
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		Admin:       actorID,
		Members:     []string{actorID},
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.ErrorContext(ctx, "CreateGroup failed", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "Group created", "group_id", group.ID)
	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionCreated,
		Entity:   audit.EntityGroup,
		EntityID: group.ID,
		ActorID:  actorID,
		GroupID:  group.ID,
		Changes:  map[string]any{"name": name},
	})

	return group, nil
}

// AddMembers appends members to the group. Only the group admin may add
// members; membership is append-only.
func (s *GroupService) AddMembers(ctx context.Context, actorID, groupID string, members []string) (*models.Group, error) {
	slog.InfoContext(ctx, "AddMembers request received",
		"actor_id", actorID,
		"group_id", groupID,
		"members_count", len(members),
	)

	group, err := s.guard.Authorize(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if group.Admin != actorID {
		return nil, fmt.Errorf("only the group admin may add members: %w", ErrAccessDenied)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no members to add: %w", ErrValidation)
	}
	for _, m := range members {
		if m == "" {
			return nil, fmt.Errorf("member id cannot be empty: %w", ErrValidation)
		}
	}

	if err := s.store.AddGroupMembers(ctx, groupID, members); err != nil {
		slog.ErrorContext(ctx, "AddMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}

	emit(ctx, s.audit, audit.Event{
		Action:   audit.ActionMemberAdded,
		Entity:   audit.EntityGroup,
		EntityID: groupID,
		ActorID:  actorID,
		GroupID:  groupID,
		Changes:  map[string]any{"members": members},
	})

	return s.store.GetGroup(ctx, groupID)
}

// GetGroup retrieves a group the actor belongs to.
func (s *GroupService) GetGroup(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	return s.guard.Authorize(ctx, actorID, groupID)
}

// ListGroups retrieves all groups the actor belongs to.
func (s *GroupService) ListGroups(ctx context.Context, actorID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByMember(ctx, actorID)
	if err != nil {
		slog.ErrorContext(ctx, "ListGroups failed", "actor_id", actorID, "error", err)
		return nil, err
	}
	return groups, nil
}

// GroupBalances computes per-member balances and a simplified debt matrix
// from the group's expenses. Paid splits count as settled and drop out of
// the debt edges.
func (s *GroupService) GroupBalances(ctx context.Context, actorID, groupID string) ([]calculator.MemberBalance, []calculator.DebtEdge, error) {
	slog.InfoContext(ctx, "GroupBalances request received", "actor_id", actorID, "group_id", groupID)

	if _, err := s.guard.Authorize(ctx, actorID, groupID); err != nil {
		return nil, nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.ErrorContext(ctx, "GroupBalances failed", "group_id", groupID, "error", err)
		return nil, nil, err
	}

	balances, debts := calculator.GroupBalances(expenses)

	slog.InfoContext(ctx, "GroupBalances successful",
		"group_id", groupID,
		"expenses_count", len(expenses),
		"members_count", len(balances),
		"debts_count", len(debts),
	)

	return balances, debts, nil
}
