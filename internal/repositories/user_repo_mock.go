package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// Records are stored and returned by value so callers never share state.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, rejecting duplicate emails.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

// GetByResetToken returns the user holding an unexpired reset token hash.
func (r *MockUserRepository) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return u.ResetToken == tokenHash && u.HasPendingReset(now)
	})
}

// Update replaces an existing user.
func (r *MockUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrNotFound)
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

// SetResetToken stores a pending reset on user id.
func (r *MockUserRepository) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	user.ResetToken = tokenHash
	user.ResetTokenExpiresAt = &expiresAt
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// ConsumeResetToken sets the password and clears the reset while tokenHash is
// still the pending, unexpired reset of user id.
func (r *MockUserRepository) ConsumeResetToken(_ context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.ResetToken != tokenHash || !user.HasPendingReset(now) {
		return fmt.Errorf("reset token for user %s: %w", id, ErrNotFound)
	}
	user.PasswordHash = passwordHash
	user.ClearReset()
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *MockUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}
