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

type PrescriptionService struct {
	prescriptions ports.PrescriptionRepository
	appointments  ports.AppointmentRepository
	patients      ports.PatientRepository
	notifier      ports.Notifier
	log           zerolog.Logger
}

func NewPrescriptionService(
	prescriptions ports.PrescriptionRepository,
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		prescriptions: prescriptions,
		appointments:  appointments,
		patients:      patients,
		notifier:      notifier,
		log:           log,
	}
}

// Create writes a prescription for an appointment the caller owns as doctor
// and whose patient matches input.PatientID.
func (s *PrescriptionService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePrescriptionInput) (string, error) {
	appt, err := s.appointments.FindByID(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrAppointmentMismatch
		}
		return "", fmt.Errorf("create prescription: load appointment: %w", err)
	}
	if appt.PatientID != in.PatientID || appt.DoctorID != caller.UserID {
		return "", domain.ErrAppointmentMismatch
	}

	id, err := s.prescriptions.Insert(ctx, &domain.Prescription{
		AppointmentID: appt.ID,
		DoctorID:      caller.UserID,
		PatientID:     appt.PatientID,
		Medication:    in.Medication,
		Instructions:  in.Instructions,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("create prescription: %w", err)
	}

	s.log.Info().Str("prescription_id", id).Str("appointment_id", appt.ID).Msg("prescription created")

	if p, err := s.patients.FindByID(ctx, appt.PatientID); err == nil && p.OwnerUserID != nil {
		s.notifier.Enqueue(ports.NotificationInput{
			UserID:  *p.OwnerUserID,
			Message: "New prescription: " + in.Medication,
		})
	}
	return id, nil
}

// ListForPatient returns the patient's prescriptions, newest first.
func (s *PrescriptionService) ListForPatient(ctx context.Context, caller domain.Identity, patientID string) ([]*domain.Prescription, error) {
	if err := authorizePatientRecords(ctx, s.patients, caller, patientID); err != nil {
		return nil, err
	}
	return s.prescriptions.ListByPatient(ctx, patientID)
}
