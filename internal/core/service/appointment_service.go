package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/pkg/metrics"
)

// AppointmentService books appointments and guards the one-appointment-per
// (doctor, slot) invariant.
type AppointmentService struct {
	appointments ports.AppointmentRepository
	patients     ports.PatientRepository
	users        ports.UserRepository
	notifier     ports.Notifier
	log          zerolog.Logger
}

func NewAppointmentService(
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		patients:     patients,
		users:        users,
		notifier:     notifier,
		log:          log,
	}
}

// Book creates a scheduled appointment. The slot uniqueness is left entirely
// to the repository's atomic insert; a collision surfaces as an error
// matching domain.ErrDoubleBooking.
func (s *AppointmentService) Book(ctx context.Context, caller domain.Identity, in ports.BookInput) (string, error) {
	slot, err := domain.NormalizeSlot(in.StartTime)
	if err != nil {
		return "", err
	}

	doctor, err := s.users.FindByID(ctx, in.DoctorID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("book: load doctor: %w", err)
	}
	if doctor == nil || doctor.Role != domain.RoleDoctor {
		return "", domain.InvalidInput("doctor_id must reference a Doctor")
	}

	patient, err := s.patients.FindByID(ctx, in.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.InvalidInput("Unknown patient")
		}
		return "", fmt.Errorf("book: load patient: %w", err)
	}

	if caller.Role == domain.RolePatient && !patient.OwnedBy(caller.UserID) {
		return "", domain.ErrForbidden
	}

	appt := &domain.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		StartTime: slot,
		Reason:    in.Reason,
		Status:    domain.AppointmentScheduled,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.appointments.Insert(ctx, appt)
	if err != nil {
		if errors.Is(err, domain.ErrDoubleBooking) {
			metrics.BookingsTotal.WithLabelValues("conflict").Inc()
			s.log.Info().Str("doctor_id", doctor.ID).Str("start_time", slot).Msg("double booking rejected")
			return "", err
		}
		return "", fmt.Errorf("book: %w", err)
	}
	metrics.BookingsTotal.WithLabelValues("booked").Inc()

	s.log.Info().
		Str("appointment_id", id).
		Str("doctor_id", doctor.ID).
		Str("patient_id", patient.ID).
		Str("start_time", slot).
		Msg("appointment booked")

	s.notifier.Enqueue(ports.NotificationInput{
		UserID:  doctor.ID,
		Message: fmt.Sprintf("New appointment on %s with %s", slot, patient.FullName()),
	})
	if patient.OwnerUserID != nil {
		s.notifier.Enqueue(ports.NotificationInput{
			UserID:  *patient.OwnerUserID,
			Message: fmt.Sprintf("Your appointment with %s is booked for %s", doctor.FullName, slot),
		})
	}
	return id, nil
}

// ListForDoctor returns the doctor's schedule as visible to caller.
func (s *AppointmentService) ListForDoctor(ctx context.Context, caller domain.Identity, doctorID string) ([]ports.AppointmentView, error) {
	rows, err := s.appointments.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	rows = visibleAppointments(caller, rows)
	out := make([]ports.AppointmentView, len(rows))
	for i, r := range rows {
		out[i] = ports.AppointmentView{
			ID:          r.ID,
			PatientID:   r.PatientID,
			DoctorID:    r.DoctorID,
			StartTime:   r.StartTime,
			Reason:      r.Reason,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt,
			PatientName: r.PatientName,
			DoctorName:  r.DoctorName,
		}
	}
	return out, nil
}

// UpdateStatus moves an appointment to status. Doctors may only update their
// own appointments.
func (s *AppointmentService) UpdateStatus(ctx context.Context, caller domain.Identity, id string, status domain.AppointmentStatus) error {
	if !status.Valid() {
		return domain.InvalidInput("status must be one of scheduled, completed, canceled")
	}
	if caller.Role == domain.RoleDoctor {
		appt, err := s.appointments.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if appt.DoctorID != caller.UserID {
			return domain.ErrForbidden
		}
	}
	return s.appointments.UpdateStatus(ctx, id, status)
}

// Delete removes an appointment together with its prescriptions.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("appointment_id", id).Msg("appointment deleted")
	return nil
}
