package repositories

import (
	"context"
	"time"

	"blog/internal/models"
)

// UserRepository defines the interface for user data access.
// Emails are expected to be normalized (trimmed, lower-case) by the caller.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByResetToken returns the user whose stored reset hash equals tokenHash
	// and whose reset expiry is strictly after now.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	// Update persists every field of user in a single write.
	Update(ctx context.Context, user *models.User) error
	// SetResetToken stores a pending reset on user id, replacing any earlier
	// one. No other field is written.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken sets passwordHash and clears the reset fields, but only
	// while user id still holds tokenHash unexpired at now. Otherwise it returns
	// ErrNotFound and writes nothing.
	ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error
}
