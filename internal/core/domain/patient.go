package domain

import "time"

// RedactedMarker replaces fields a caller is not entitled to read.
const RedactedMarker = "[REDACTED]"

// Patient is a demographic record, optionally owned by a User of role Patient.
type Patient struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DOB            string    `json:"dob"`
	Phone          string    `json:"phone"`
	MedicalHistory string    `json:"medical_history"`
	OwnerUserID    *string   `json:"owner_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// OwnedBy reports whether userID owns p.
func (p *Patient) OwnedBy(userID string) bool {
	return p.OwnerUserID != nil && userID != "" && *p.OwnerUserID == userID
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
