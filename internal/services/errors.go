package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is returned by every service operation. Message is safe to show to
// clients; Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so sentinels below
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrInvalidCredentials = &Error{Kind: KindAuth, Message: "Invalid credentials"}
	ErrInvalidToken       = &Error{Kind: KindAuth, Message: "Invalid or expired token"}
	ErrUserExists         = &Error{Kind: KindConflict, Message: "User already exists"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrPostNotFound       = &Error{Kind: KindNotFound, Message: "Post not found"}
	ErrNotAuthor          = &Error{Kind: KindForbidden, Message: "Not authorized to modify this post"}
	ErrSlugTaken          = &Error{Kind: KindConflict, Message: "A post with this title already exists"}
)

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "Server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf reports the Kind of err, defaulting to KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
