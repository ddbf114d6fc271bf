package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// CreatePrescriptionInput carries a new prescription written by the caller.
type CreatePrescriptionInput struct {
	AppointmentID string
	PatientID     string
	Medication    string
	Instructions  string
}

type PrescriptionService interface {
	Create(ctx context.Context, caller domain.Identity, input CreatePrescriptionInput) (string, error)
	ListForPatient(ctx context.Context, caller domain.Identity, patientID string) ([]*domain.Prescription, error)
}

// CreateBillInput carries a new charge.
type CreateBillInput struct {
	PatientID   string
	Amount      float64
	Description string
}

type BillingService interface {
	Create(ctx context.Context, input CreateBillInput) (string, error)
	ListForPatient(ctx context.Context, caller domain.Identity, patientID string) ([]*domain.Bill, error)
	UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error
}
