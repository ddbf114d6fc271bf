package domain

import "time"

// BillStatus is the payment state of a Bill.
type BillStatus string

const (
	BillUnpaid BillStatus = "unpaid"
	BillPaid   BillStatus = "paid"
	BillVoid   BillStatus = "void"
)

// Valid reports whether s is a known bill status.
func (s BillStatus) Valid() bool {
	switch s {
	case BillUnpaid, BillPaid, BillVoid:
		return true
	}
	return false
}

// Bill is a charge against a Patient.
type Bill struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	Amount      float64    `json:"amount"`
	Status      BillStatus `json:"status"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}
