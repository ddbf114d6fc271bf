package domain

import "time"

// SlotLayout is the fixed-precision local date+time format of an appointment slot.
const SlotLayout = "2006-01-02 15:04"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCanceled:
		return true
	}
	return false
}

// Appointment links a Patient and a Doctor to one slot. (DoctorID, StartTime)
// is unique across all appointments.
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	StartTime string            `json:"start_time"`
	Reason    string            `json:"reason"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// AppointmentListing is an appointment joined with display names and the
// owner of its patient, as returned by doctor schedule queries.
type AppointmentListing struct {
	Appointment
	PatientName    string
	DoctorName     string
	PatientOwnerID *string
}

// NormalizeSlot parses s as a slot and returns its canonical text.
func NormalizeSlot(s string) (string, error) {
	t, err := time.Parse(SlotLayout, s)
	if err != nil {
		return "", InvalidInput("start_time must be formatted as YYYY-MM-DD HH:MM")
	}
	return t.Format(SlotLayout), nil
}
