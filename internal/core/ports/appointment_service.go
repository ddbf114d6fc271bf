package ports

import (
	"context"
	"time"

	"github.com/medora/hospital-system/internal/core/domain"
)

// BookInput carries a booking request.
type BookInput struct {
	PatientID string
	DoctorID  string
	StartTime string
	Reason    string
}

// AppointmentView is one row of a doctor's schedule.
type AppointmentView struct {
	ID          string
	PatientID   string
	DoctorID    string
	StartTime   string
	Reason      string
	Status      string
	CreatedAt   time.Time
	PatientName string
	DoctorName  string
}

type AppointmentService interface {
	Book(ctx context.Context, caller domain.Identity, input BookInput) (string, error)
	ListForDoctor(ctx context.Context, caller domain.Identity, doctorID string) ([]AppointmentView, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, id string, status domain.AppointmentStatus) error
	Delete(ctx context.Context, id string) error
}
