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

type PatientService struct {
	patients ports.PatientRepository
	users    ports.UserRepository
	log      zerolog.Logger
}

func NewPatientService(patients ports.PatientRepository, users ports.UserRepository, log zerolog.Logger) *PatientService {
	return &PatientService{patients: patients, users: users, log: log}
}

// Create registers a patient. An owner link must reference a Patient user.
func (s *PatientService) Create(ctx context.Context, in ports.CreatePatientInput) (string, error) {
	if in.OwnerUserID != nil {
		owner, err := s.users.FindByID(ctx, *in.OwnerUserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("create patient: load owner: %w", err)
		}
		if owner == nil || owner.Role != domain.RolePatient {
			return "", domain.InvalidInput("Invalid owner user link")
		}
	}

	id, err := s.patients.Create(ctx, &domain.Patient{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		DOB:            in.DOB,
		Phone:          in.Phone,
		MedicalHistory: in.MedicalHistory,
		OwnerUserID:    in.OwnerUserID,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("create patient: %w", err)
	}

	s.log.Info().Str("patient_id", id).Msg("patient registered")
	return id, nil
}

// Get returns the patient as visible to caller.
func (s *PatientService) Get(ctx context.Context, caller domain.Identity, id string) (*ports.PatientView, error) {
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanViewPatient(caller, p) {
		return nil, domain.ErrForbidden
	}
	return RedactPatient(caller, p), nil
}

// Delete removes the patient and everything that hangs off it.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("patient_id", id).Msg("patient deleted")
	return nil
}
