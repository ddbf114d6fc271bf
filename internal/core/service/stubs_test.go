package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *u
	clone.ID = fmt.Sprintf("u%d", r.seq)
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// add stores a user with a fixed id and no password.
func (r *stubUserRepo) add(id string, role domain.Role, fullName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = &domain.User{ID: id, Username: id, Role: role, FullName: fullName}
}

type stubPatientRepo struct {
	mu       sync.Mutex
	seq      int
	patients map[string]*domain.Patient
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{patients: make(map[string]*domain.Patient)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *domain.Patient) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *p
	clone.ID = fmt.Sprintf("p%d", r.seq)
	r.patients[clone.ID] = &clone
	return clone.ID, nil
}

func (r *stubPatientRepo) FindByID(_ context.Context, id string) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPatientRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return domain.ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *stubPatientRepo) add(p *domain.Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.patients[p.ID] = &clone
}

// stubAppointmentRepo enforces (doctor_id, start_time) uniqueness inside a
// single critical section, the same guarantee a unique index gives.
type stubAppointmentRepo struct {
	mu       sync.Mutex
	seq      int
	byID     map[string]*domain.Appointment
	bySlot   map[string]string
	patients *stubPatientRepo
	users    *stubUserRepo
}

func newStubAppointmentRepo(patients *stubPatientRepo, users *stubUserRepo) *stubAppointmentRepo {
	return &stubAppointmentRepo{
		byID:     make(map[string]*domain.Appointment),
		bySlot:   make(map[string]string),
		patients: patients,
		users:    users,
	}
}

func (r *stubAppointmentRepo) Insert(_ context.Context, a *domain.Appointment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := a.DoctorID + "|" + a.StartTime
	if _, taken := r.bySlot[key]; taken {
		return "", &domain.ConflictError{Detail: "duplicate (doctor_id, start_time)"}
	}
	r.seq++
	clone := *a
	clone.ID = fmt.Sprintf("a%d", r.seq)
	r.byID[clone.ID] = &clone
	r.bySlot[key] = clone.ID
	return clone.ID, nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAppointmentRepo) ListByDoctor(ctx context.Context, doctorID string) ([]domain.AppointmentListing, error) {
	r.mu.Lock()
	var rows []domain.AppointmentListing
	for _, a := range r.byID {
		if a.DoctorID == doctorID {
			rows = append(rows, domain.AppointmentListing{Appointment: *a})
		}
	}
	r.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime < rows[j].StartTime })
	for i := range rows {
		if p, err := r.patients.FindByID(ctx, rows[i].PatientID); err == nil {
			rows[i].PatientName = p.FullName()
			rows[i].PatientOwnerID = p.OwnerUserID
		}
		if d, err := r.users.FindByID(ctx, rows[i].DoctorID); err == nil {
			rows[i].DoctorName = d.FullName
		}
	}
	return rows, nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r *stubAppointmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	delete(r.bySlot, a.DoctorID+"|"+a.StartTime)
	delete(r.byID, id)
	return nil
}

type stubPrescriptionRepo struct {
	mu    sync.Mutex
	items []*domain.Prescription
}

func (r *stubPrescriptionRepo) Insert(_ context.Context, p *domain.Prescription) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	clone.ID = fmt.Sprintf("rx%d", len(r.items)+1)
	r.items = append(r.items, &clone)
	return clone.ID, nil
}

func (r *stubPrescriptionRepo) ListByPatient(_ context.Context, patientID string) ([]*domain.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Prescription{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].PatientID == patientID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

type stubBillingRepo struct {
	mu    sync.Mutex
	items []*domain.Bill
}

func (r *stubBillingRepo) Insert(_ context.Context, b *domain.Bill) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	clone.ID = fmt.Sprintf("b%d", len(r.items)+1)
	r.items = append(r.items, &clone)
	return clone.ID, nil
}

func (r *stubBillingRepo) ListByPatient(_ context.Context, patientID string) ([]*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Bill{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].PatientID == patientID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *stubBillingRepo) UpdateStatus(_ context.Context, id string, status domain.BillStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.ID == id {
			b.Status = status
			return nil
		}
	}
	return domain.ErrBillNotFound
}

type stubNotificationRepo struct {
	mu    sync.Mutex
	items []*domain.Notification
}

func (r *stubNotificationRepo) Insert(_ context.Context, n *domain.Notification) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *n
	clone.ID = fmt.Sprintf("n%d", len(r.items)+1)
	r.items = append(r.items, &clone)
	return clone.ID, nil
}

func (r *stubNotificationRepo) ListByUser(_ context.Context, userID string) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Notification{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			clone := *r.items[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

type stubSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]domain.Session
	updateErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *stubSessionStore) UpdateCSRF(_ context.Context, id, token string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.CSRFToken = token
	sess.CSRFIssuedAt = issuedAt
	s.sessions[id] = sess
	return nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// recordingNotifier keeps every enqueued notification.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.NotificationInput
}

func (n *recordingNotifier) Enqueue(in ports.NotificationInput) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, in)
}

func (n *recordingNotifier) forUser(userID string) []ports.NotificationInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.NotificationInput
	for _, in := range n.sent {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }
