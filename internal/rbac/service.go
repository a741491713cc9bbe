package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dailyflow/dailyflow/internal/shared"
)

// ErrNotFound indicates the user does not exist or is inactive.
var ErrNotFound = errors.New("rbac: not found")

// Querier is the subset of pgxpool.Pool used by Service.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service resolves roles from the users table.
type Service struct {
	db Querier
}

// NewService constructs a Service backed by the provided pool.
func NewService(db Querier) *Service {
	return &Service{db: db}
}

// Role returns the role of an active user.
func (s *Service) Role(ctx context.Context, userID uuid.UUID) (shared.Role, error) {
	const query = `SELECT role FROM users WHERE id = $1 AND is_active`
	var raw string
	if err := s.db.QueryRow(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	role, ok := shared.ParseRole(raw)
	if !ok {
		return "", fmt.Errorf("rbac: unknown role %q for user %s", raw, userID)
	}
	return role, nil
}

var _ RoleResolver = (*Service)(nil)
