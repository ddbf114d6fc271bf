package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type BillingService struct {
	bills    ports.BillingRepository
	patients ports.PatientRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewBillingService(bills ports.BillingRepository, patients ports.PatientRepository, notifier ports.Notifier, log zerolog.Logger) *BillingService {
	return &BillingService{bills: bills, patients: patients, notifier: notifier, log: log}
}

// Create issues an unpaid bill against an existing patient.
func (s *BillingService) Create(ctx context.Context, in ports.CreateBillInput) (string, error) {
	if in.Amount < 0 {
		return "", domain.InvalidInput("amount must be zero or greater")
	}
	p, err := s.patients.FindByID(ctx, in.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.InvalidInput("Unknown patient")
		}
		return "", fmt.Errorf("create bill: load patient: %w", err)
	}

	id, err := s.bills.Insert(ctx, &domain.Bill{
		PatientID:   p.ID,
		Amount:      in.Amount,
		Status:      domain.BillUnpaid,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("create bill: %w", err)
	}

	s.log.Info().Str("bill_id", id).Str("patient_id", p.ID).Float64("amount", in.Amount).Msg("bill issued")

	if p.OwnerUserID != nil {
		s.notifier.Enqueue(ports.NotificationInput{
			UserID:  *p.OwnerUserID,
			Message: fmt.Sprintf("A new bill of %.2f has been issued", in.Amount),
		})
	}
	return id, nil
}

// ListForPatient returns the patient's bills, newest first.
func (s *BillingService) ListForPatient(ctx context.Context, caller domain.Identity, patientID string) ([]*domain.Bill, error) {
	if err := authorizePatientRecords(ctx, s.patients, caller, patientID); err != nil {
		return nil, err
	}
	return s.bills.ListByPatient(ctx, patientID)
}

func (s *BillingService) UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error {
	if !status.Valid() {
		return domain.InvalidInput("status must be one of unpaid, paid, void")
	}
	return s.bills.UpdateStatus(ctx, id, status)
}
