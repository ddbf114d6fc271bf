package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// PatientRepository defines persistence for patient records.
type PatientRepository interface {
	Create(ctx context.Context, p *domain.Patient) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Patient, error)
	// Delete removes the patient with its appointments, prescriptions and bills.
	Delete(ctx context.Context, id string) error
}
