package rbac

import (
	"context"

	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/shared"
)

// RoleResolver resolves the role of an active user.
type RoleResolver interface {
	Role(ctx context.Context, userID uuid.UUID) (shared.Role, error)
}
