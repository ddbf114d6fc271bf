package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// AppointmentRepository defines persistence for appointments.
type AppointmentRepository interface {
	// Insert writes the appointment in one statement. A second appointment for
	// the same (doctor, start_time) must fail with an error matching
	// domain.ErrDoubleBooking; implementations enforce this with a unique
	// constraint, never with a prior read.
	Insert(ctx context.Context, a *domain.Appointment) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	// ListByDoctor returns the doctor's appointments ordered by start time.
	ListByDoctor(ctx context.Context, doctorID string) ([]domain.AppointmentListing, error)
	UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error
	// Delete removes the appointment and its prescriptions.
	Delete(ctx context.Context, id string) error
}
