package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
