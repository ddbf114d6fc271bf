package domain

import (
	"errors"
	"fmt"
)

// Authentication and authorisation.
var (
	ErrUnauthenticated    = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCSRF        = errors.New("invalid or missing CSRF token")
	ErrSessionNotFound    = errors.New("session not found")
)

// Input and persistence.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUserExists   = errors.New("user already exists")

	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrPatientNotFound      = fmt.Errorf("patient %w", ErrNotFound)
	ErrAppointmentNotFound  = fmt.Errorf("appointment %w", ErrNotFound)
	ErrBillNotFound         = fmt.Errorf("bill %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// ErrDoubleBooking is returned when a doctor already has an appointment at the
// requested slot. It is produced by the store's unique index, never by a read.
var ErrDoubleBooking = errors.New("doctor already has an appointment at that time")

// InputError carries a client-facing message for a validation failure.
// It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput returns an InputError with the given message.
func InvalidInput(msg string) error {
	return &InputError{Msg: msg}
}

// ConflictError wraps ErrDoubleBooking with a diagnostic detail from the store.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return ErrDoubleBooking.Error() + ": " + e.Detail }

func (e *ConflictError) Unwrap() error { return ErrDoubleBooking }

// ErrAppointmentMismatch is returned when a prescription references an
// appointment that is not the caller's or not the given patient's.
var ErrAppointmentMismatch = fmt.Errorf("appointment mismatch/unauthorized: %w", ErrForbidden)
