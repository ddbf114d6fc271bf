package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

// CanViewPatient applies the role-keyed visibility rules for a patient record.
func CanViewPatient(caller domain.Identity, p *domain.Patient) bool {
	switch caller.Role {
	case domain.RoleAdmin, domain.RoleStaff, domain.RoleDoctor:
		return true
	case domain.RolePatient:
		return p.OwnedBy(caller.UserID)
	case domain.RolePharmacy:
		// Demographics only; RedactPatient hides the history.
		return true
	}
	return false
}

// RedactPatient returns the view of p the caller is entitled to.
func RedactPatient(caller domain.Identity, p *domain.Patient) *ports.PatientView {
	view := &ports.PatientView{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DOB:            p.DOB,
		Phone:          p.Phone,
		MedicalHistory: p.MedicalHistory,
		OwnerUserID:    p.OwnerUserID,
		CreatedAt:      p.CreatedAt,
	}
	if caller.Role == domain.RolePharmacy {
		view.MedicalHistory = domain.RedactedMarker
	}
	return view
}

// visibleAppointments drops rows a Patient caller does not own.
func visibleAppointments(caller domain.Identity, rows []domain.AppointmentListing) []domain.AppointmentListing {
	if caller.Role != domain.RolePatient {
		return rows
	}
	out := make([]domain.AppointmentListing, 0, len(rows))
	for _, r := range rows {
		if r.PatientOwnerID != nil && *r.PatientOwnerID == caller.UserID {
			out = append(out, r)
		}
	}
	return out
}

// authorizePatientRecords gates per-patient listings (prescriptions, bills).
// Patient callers may only read records of a patient they own; an unknown
// patient is indistinguishable from someone else's.
func authorizePatientRecords(ctx context.Context, patients ports.PatientRepository, caller domain.Identity, patientID string) error {
	if caller.Role != domain.RolePatient {
		return nil
	}
	p, err := patients.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("load patient: %w", err)
	}
	if !p.OwnedBy(caller.UserID) {
		return domain.ErrForbidden
	}
	return nil
}
