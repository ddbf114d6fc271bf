package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

type BillingRepository interface {
	Insert(ctx context.Context, b *domain.Bill) (string, error)
	// ListByPatient returns newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Bill, error)
	UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error
}
