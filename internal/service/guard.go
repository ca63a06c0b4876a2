package service

import (
	"context"
	"fmt"

	"github.com/microsave/microsave/internal/metrics"
	"github.com/microsave/microsave/internal/models"
	"github.com/microsave/microsave/internal/storage"
)

// Guard is the membership gate in front of every group-scoped operation.
// Authorize must succeed before any read or write of a group's financial
// entities; the returned Group is reused within the same logical operation.
type Guard struct {
	store storage.Store
}

// NewGuard creates a Guard backed by the given store.
func NewGuard(store storage.Store) *Guard {
	return &Guard{store: store}
}

// Authorize checks that actorID is a member of the group. It returns the
// group on success, storage.ErrNotFound if the group does not exist, and
// ErrAccessDenied if the actor is not in the member set.
func (g *Guard) Authorize(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	group, err := g.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !group.HasMember(actorID) {
		metrics.AccessDenials.Inc()
		return nil, fmt.Errorf("actor %s is not a member of group %s: %w", actorID, groupID, ErrAccessDenied)
	}

	return group, nil
}
