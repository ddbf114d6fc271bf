package ports

import (
	"context"
	"time"

	"github.com/medora/hospital-system/internal/core/domain"
)

// CreatePatientInput carries the fields of a new patient record.
type CreatePatientInput struct {
	FirstName      string
	LastName       string
	DOB            string
	Phone          string
	MedicalHistory string
	OwnerUserID    *string
}

// PatientView is a patient record after role-based redaction.
type PatientView struct {
	ID             string
	FirstName      string
	LastName       string
	DOB            string
	Phone          string
	MedicalHistory string
	OwnerUserID    *string
	CreatedAt      time.Time
}

type PatientService interface {
	Create(ctx context.Context, input CreatePatientInput) (string, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*PatientView, error)
	Delete(ctx context.Context, id string) error
}
