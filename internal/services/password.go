package services

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher wraps bcrypt and bounds how many hashes run at once, so a burst
// of logins cannot starve the rest of the server of CPU.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
	// dummy is compared against when a login names an unknown account.
	dummy []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost and at most
// GOMAXPROCS concurrent hash operations.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h := &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	h.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return h
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A mismatch is (false, nil).
// Passwords over 72 bytes never match.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	if len(password) > maxPasswordBytes {
		// bcrypt only sees the first 72 bytes; spend the same work, never match.
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password[:maxPasswordBytes]))
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// maxPasswordBytes is the longest input bcrypt hashes in full.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
var ErrPasswordTooLong = &Error{Kind: KindValidation, Message: "Password must be at most 72 bytes"}

func hashFailure(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrPasswordTooLong
	}
	return internalError("hash password", err)
}

// Waste performs a comparison against a fixed hash so that unknown accounts take
// as long to reject as wrong passwords.
func (h *PasswordHasher) Waste(ctx context.Context, password string) {
	_, _ = h.Compare(ctx, string(h.dummy), password)
}
