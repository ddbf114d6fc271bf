package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

type PrescriptionRepository interface {
	Insert(ctx context.Context, p *domain.Prescription) (string, error)
	// ListByPatient returns newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Prescription, error)
}
