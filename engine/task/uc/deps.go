package uc

import (
	"context"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/geo"
	"github.com/fieldops/dispatch/engine/user"
	"github.com/fieldops/dispatch/pkg/logger"
)

// Geocoder is the address-resolution collaborator. It never fails; an
// unresolved address yields the sentinel coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, address string) geo.Coordinate
}

// resolveActor loads the acting user, tolerating an absent or unknown id:
// an action without a resolvable actor is still performed, it is just
// recorded under a generic author name.
func resolveActor(ctx context.Context, users user.Repository, actorID *core.ID) *user.User {
	if actorID == nil || actorID.IsZero() || users == nil {
		return nil
	}
	actor, err := users.GetByID(ctx, *actorID)
	if err != nil {
		logger.FromContext(ctx).Warn("actor not resolved", "actor_id", *actorID, "error", err)
		return nil
	}
	return actor
}

// authorName is the audit-trail author label for an optional actor.
func authorName(actor *user.User) string {
	if actor == nil {
		return "Сотрудник"
	}
	return actor.DisplayName()
}
