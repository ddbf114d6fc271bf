package api

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medora/hospital-system/internal/core/domain"
)

// memStore is an in-memory implementation of every repository port, used to
// drive the router end to end without MongoDB.
type memStore struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	patients      map[string]*domain.Patient
	appointments  map[string]*domain.Appointment
	slots         map[string]string
	prescriptions []*domain.Prescription
	bills         map[string]*domain.Bill
	notifications []*domain.Notification
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*domain.User),
		patients:     make(map[string]*domain.Patient),
		appointments: make(map[string]*domain.Appointment),
		slots:        make(map[string]string),
		bills:        make(map[string]*domain.Bill),
	}
}

func newID() string { return primitive.NewObjectID().Hex() }

// dropAppointment removes an appointment, its slot and its prescriptions.
// The caller holds mu.
func (m *memStore) dropAppointment(id string) {
	a := m.appointments[id]
	delete(m.slots, a.DoctorID+"|"+a.StartTime)
	delete(m.appointments, id)
	m.dropPrescriptions(func(p *domain.Prescription) bool { return p.AppointmentID == id })
}

func (m *memStore) dropPrescriptions(match func(*domain.Prescription) bool) {
	kept := m.prescriptions[:0]
	for _, p := range m.prescriptions {
		if !match(p) {
			kept = append(kept, p)
		}
	}
	m.prescriptions = kept
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	clone.ID = newID()
	m.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (m memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)

	for apptID, a := range m.appointments {
		if a.DoctorID == id {
			m.dropAppointment(apptID)
		}
	}
	m.dropPrescriptions(func(p *domain.Prescription) bool { return p.DoctorID == id })
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.UserID != id {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	for _, p := range m.patients {
		if p.OwnedBy(id) {
			p.OwnerUserID = nil
		}
	}
	return nil
}

type memPatients struct{ *memStore }

func (m memPatients) Create(_ context.Context, p *domain.Patient) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	clone.ID = newID()
	m.patients[clone.ID] = &clone
	return clone.ID, nil
}

func (m memPatients) FindByID(_ context.Context, id string) (*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	clone := *p
	return &clone, nil
}

func (m memPatients) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return domain.ErrPatientNotFound
	}
	delete(m.patients, id)

	for apptID, a := range m.appointments {
		if a.PatientID == id {
			m.dropAppointment(apptID)
		}
	}
	m.dropPrescriptions(func(p *domain.Prescription) bool { return p.PatientID == id })
	for billID, b := range m.bills {
		if b.PatientID == id {
			delete(m.bills, billID)
		}
	}
	return nil
}

type memAppointments struct{ *memStore }

func (m memAppointments) Insert(_ context.Context, a *domain.Appointment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := a.DoctorID + "|" + a.StartTime
	if _, taken := m.slots[slot]; taken {
		return "", &domain.ConflictError{Detail: "unique index uniq_doctor_slot violated (doctor_id, start_time)"}
	}
	clone := *a
	clone.ID = newID()
	m.appointments[clone.ID] = &clone
	m.slots[slot] = clone.ID
	return clone.ID, nil
}

func (m memAppointments) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (m memAppointments) ListByDoctor(_ context.Context, doctorID string) ([]domain.AppointmentListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []domain.AppointmentListing
	for _, a := range m.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		row := domain.AppointmentListing{Appointment: *a}
		if p, ok := m.patients[a.PatientID]; ok {
			row.PatientName = p.FullName()
			row.PatientOwnerID = p.OwnerUserID
		}
		if d, ok := m.users[a.DoctorID]; ok {
			row.DoctorName = d.FullName
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime < rows[j].StartTime })
	return rows, nil
}

func (m memAppointments) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (m memAppointments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return domain.ErrAppointmentNotFound
	}
	m.dropAppointment(id)
	return nil
}

type memPrescriptions struct{ *memStore }

func (m memPrescriptions) Insert(_ context.Context, p *domain.Prescription) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	clone.ID = newID()
	m.prescriptions = append(m.prescriptions, &clone)
	return clone.ID, nil
}

func (m memPrescriptions) ListByPatient(_ context.Context, patientID string) ([]*domain.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Prescription
	for i := len(m.prescriptions) - 1; i >= 0; i-- {
		if m.prescriptions[i].PatientID == patientID {
			clone := *m.prescriptions[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memBills struct{ *memStore }

func (m memBills) Insert(_ context.Context, b *domain.Bill) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *b
	clone.ID = newID()
	m.bills[clone.ID] = &clone
	return clone.ID, nil
}

func (m memBills) ListByPatient(_ context.Context, patientID string) ([]*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Bill
	for _, b := range m.bills {
		if b.PatientID == patientID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m memBills) UpdateStatus(_ context.Context, id string, status domain.BillStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return domain.ErrBillNotFound
	}
	b.Status = status
	return nil
}

type memNotifications struct{ *memStore }

func (m memNotifications) Insert(_ context.Context, n *domain.Notification) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	clone.ID = newID()
	m.notifications = append(m.notifications, &clone)
	return clone.ID, nil
}

func (m memNotifications) ListByUser(_ context.Context, userID string) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].UserID == userID {
			clone := *m.notifications[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m memNotifications) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}
