package services

import (
	"context"
	"fmt"

	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

// requireRole is the single access-policy check every operation goes
// through. The role is resolved at call time, never cached on a session, and
// every failure collapses into ErrUnauthorized so callers cannot distinguish
// "no such actor" from "wrong role".
func requireRole(ctx context.Context, users repositories.UserRepository, actorID, resource, operation string, roles ...models.UserRole) (*models.User, error) {
	if actorID == "" {
		return nil, ErrUnauthorized
	}

	actor, err := users.GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}

	return nil, NewPermissionError(actorID, resource, operation, "insufficient role")
}

// requireStaff gates admin-only operations on the ADMIN / SUPER_ADMIN set.
func requireStaff(ctx context.Context, users repositories.UserRepository, actorID, resource, operation string) (*models.User, error) {
	return requireRole(ctx, users, actorID, resource, operation, models.RoleAdmin, models.RoleSuperAdmin)
}
