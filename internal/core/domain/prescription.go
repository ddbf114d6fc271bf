package domain

import "time"

// Prescription is written by the Doctor who owns the referenced Appointment.
type Prescription struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	Medication    string    `json:"medication"`
	Instructions  string    `json:"instructions"`
	CreatedAt     time.Time `json:"created_at"`
}
