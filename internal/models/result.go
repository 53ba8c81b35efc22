package models

import (
	"errors"
	"time"
)

// FailureKind discriminates expected failures of repository operations.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureConflict   FailureKind = "conflict"
	FailureNotFound   FailureKind = "not_found"
	FailureParse      FailureKind = "parse"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("slot conflict")
	ErrNotFound   = errors.New("booking not found")
	ErrParse      = errors.New("malformed payload")
)

// Error is an expected failure with a user-facing message.
type Error struct {
	Kind    FailureKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case FailureValidation:
		return target == ErrValidation
	case FailureConflict:
		return target == ErrConflict
	case FailureNotFound:
		return target == ErrNotFound
	case FailureParse:
		return target == ErrParse
	}
	return false
}

// Result is the outcome of a repository operation as seen by the feedback layer.
type Result struct {
	Success bool        `json:"success"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Booking *Booking    `json:"booking,omitempty"`

	// PreviousStatus is the status before a successful status change or update.
	PreviousStatus Status `json:"-"`
}

// Became reports whether a successful result moved the booking into status.
func (r Result) Became(status Status) bool {
	return r.Success && r.Booking != nil && r.Booking.Status == status && r.PreviousStatus != status
}

// Err returns nil for a successful result and an *Error otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

// Session is an authenticated administrator session.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session has not expired at now.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}
