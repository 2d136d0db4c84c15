package service

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the booking and auth flows.
var (
	ErrUnauthenticated    = errors.New("sign in to book a class")
	ErrAlreadyBooked      = errors.New("you have already booked this class")
	ErrCapacityExceeded   = errors.New("this class is full")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrConfig             = errors.New("gateway is not configured")

	errAlreadyStarted = errors.New("synchronizer already started")
	errClosed         = errors.New("synchronizer closed")
)

// PersistenceError carries a backend failure message verbatim for display.
type PersistenceError struct {
	Op      string
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
