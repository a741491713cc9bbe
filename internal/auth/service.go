package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dailyflow/dailyflow/internal/shared"
)

// dummyHash is compared against when the email is unknown so both paths pay
// for one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dailyflow-dummy-password"), bcrypt.DefaultCost)

// SessionInfo is the audit record written for each login.
type SessionInfo struct {
	ID        string
	UserID    uuid.UUID
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Unknown, inactive and
// wrong-password accounts all yield shared.ErrInvalidCredentials; any other
// error is an infrastructure failure.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidCredentials) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, info SessionInfo) error {
	if info.ID == "" || info.UserID == uuid.Nil {
		return errors.New("auth: session id and user are required")
	}
	return s.repo.CreateSession(ctx, info)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
