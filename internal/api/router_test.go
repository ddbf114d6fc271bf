package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/medora/hospital-system/internal/api/handler"
	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/core/service"
	redisstore "github.com/medora/hospital-system/internal/infrastructure/db/redis"
	"github.com/medora/hospital-system/internal/pkg/config"
)

var testSession = config.SessionConfig{
	CookieName: "hms_session",
	IdleTTL:    time.Hour,
	CSRFHeader: "X-CSRF-Token",
	CSRFMaxAge: 2 * time.Hour,
}

// syncNotifier delivers inline so tests can read notifications right away.
type syncNotifier struct{ svc ports.NotificationService }

func (n syncNotifier) Enqueue(in ports.NotificationInput) {
	_ = n.svc.Deliver(context.Background(), in)
}

type testServer struct {
	e     *echo.Echo
	store *memStore
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := newMemStore()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memUsers{store}
	patients := memPatients{store}
	appointments := memAppointments{store}

	notifications := service.NewNotificationService(memNotifications{store}, log)
	notifier := syncNotifier{notifications}
	sessions := service.NewSessionService(users, redisstore.NewSessionStore(rdb, testSession.IdleTTL), testSession.CSRFMaxAge, log)
	userSvc := service.NewUserService(users, log)
	_, err := userSvc.SeedDemoUsers(context.Background())
	require.NoError(t, err)

	e := NewRouter(Services{
		Sessions:      sessions,
		Policy:        service.NewAccessPolicy(sessions),
		Users:         userSvc,
		Patients:      service.NewPatientService(patients, users, log),
		Appointments:  service.NewAppointmentService(appointments, patients, users, notifier, log),
		Prescriptions: service.NewPrescriptionService(memPrescriptions{store}, appointments, patients, notifier, log),
		Billing:       service.NewBillingService(memBills{store}, patients, notifier, log),
		Notifications: notifications,
	}, Options{
		Session:  testSession,
		Health:   map[string]handler.Check{"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		Registry: prometheus.NewRegistry(),
		Log:      log,
	})
	return &testServer{e: e, store: store, redis: mr}
}

// client carries a session cookie and CSRF token between requests.
type client struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
	csrf   string
}

func (s *testServer) anonymous(t *testing.T) *client {
	return &client{t: t, srv: s}
}

func (s *testServer) login(t *testing.T, username, password string) *client {
	t.Helper()
	c := s.anonymous(t)
	rec, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testSession.CookieName {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie, "session cookie not set")
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.cookie.SameSite)
	c.csrf = body["csrf_token"].(string)
	return c
}

func (c *client) do(method, path string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.cookie != nil {
		req.AddCookie(&http.Cookie{Name: c.cookie.Name, Value: c.cookie.Value})
	}
	if c.csrf != "" {
		req.Header.Set(testSession.CSRFHeader, c.csrf)
	}
	rec := httptest.NewRecorder()
	c.srv.e.ServeHTTP(rec, req)

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func (s *testServer) userID(t *testing.T, username string) string {
	t.Helper()
	u, err := memUsers{s.store}.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u.ID
}

func (c *client) createPatient(owner *string) string {
	c.t.Helper()
	payload := map[string]any{
		"first_name":      "Jane",
		"last_name":       "Doe",
		"dob":             "1990-04-12",
		"phone":           "+1 555-0100",
		"medical_history": "Penicillin allergy",
	}
	if owner != nil {
		payload["owner_user_id"] = *owner
	}
	rec, body := c.do(http.MethodPost, "/api/patients", payload)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["patient_id"].(string)
}

func TestRouter_StaffBooksThenConflicts(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	patientID := staff.createPatient(nil)
	booking := map[string]string{
		"patient_id": patientID,
		"doctor_id":  srv.userID(t, "drsmith"),
		"start_time": "2026-11-02 09:30",
		"reason":     "Checkup",
	}

	rec, body := staff.do(http.MethodPost, "/api/appointments", booking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["appointment_id"])

	rec, body = staff.do(http.MethodPost, "/api/appointments", booking)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "already has an appointment")
	assert.Contains(t, body["detail"], "uniq_doctor_slot")

	doctor := srv.login(t, "drsmith", "doctor123")
	rec, body = doctor.do(http.MethodGet, "/api/appointments/"+srv.userID(t, "drsmith"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["appointments"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "Jane Doe", row["patient_name"])
	assert.Equal(t, "Dr. John Smith", row["doctor_name"])
	assert.Equal(t, "scheduled", row["status"])

	rec, body = doctor.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["notifications"], 1)
}

func TestRouter_ConcurrentBookingsOfOneSlot(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	aliceID := srv.userID(t, "alice")
	patientID := staff.createPatient(&aliceID)
	alice := srv.login(t, "alice", "patient123")
	booking := map[string]string{
		"patient_id": patientID,
		"doctor_id":  srv.userID(t, "drsmith"),
		"start_time": "2025-10-24 13:30",
	}

	codes := make([]int, 2)
	var g errgroup.Group
	for i, c := range []*client{staff, alice} {
		g.Go(func() error {
			rec, _ := c.do(http.MethodPost, "/api/appointments", booking)
			codes[i] = rec.Code
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)
}

func TestRouter_UnauthenticatedRead(t *testing.T) {
	srv := newTestServer(t)
	rec, body := srv.anonymous(t).do(http.MethodGet, "/api/patients/"+newID(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestRouter_InvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	c := srv.anonymous(t)

	rec, unknown := c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "ghost", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, wrong := c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, unknown, wrong)

	rec, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username and password required", body["error"])
}

func TestRouter_StaleCSRFIsRejectedAndRotated(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	old := staff.csrf

	stale := time.Now().UTC().Add(-3 * time.Hour).Format(time.RFC3339Nano)
	srv.redis.HSet("session:"+staff.cookie.Value, "csrf_issued_at", stale)

	rec, body := staff.do(http.MethodPost, "/api/patients", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "dob": "1990-04-12", "phone": "5550100",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or missing CSRF token", body["error"])

	rec, body = staff.do(http.MethodGet, "/api/auth/csrf-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := body["csrf_token"].(string)
	assert.NotEqual(t, old, fresh)

	staff.csrf = fresh
	staff.createPatient(nil)
}

func TestRouter_CSRFRequiredForWrites(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login(t, "admin", "admin123")
	admin.csrf = ""

	rec, _ := admin.do(http.MethodPost, "/api/users", map[string]string{
		"username": "nurse", "password": "longenough", "role": "Staff", "full_name": "Nurse Joy",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = admin.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PharmacySeesRedactedHistory(t *testing.T) {
	srv := newTestServer(t)
	patientID := srv.login(t, "reception", "staff123").createPatient(nil)

	rec, body := srv.login(t, "pharma", "pharma123").do(http.MethodGet, "/api/patients/"+patientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	patient := body["patient"].(map[string]any)
	assert.Equal(t, "[REDACTED]", patient["medical_history"])
	assert.Equal(t, "Jane", patient["first_name"])

	rec, body = srv.login(t, "drsmith", "doctor123").do(http.MethodGet, "/api/patients/"+patientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Penicillin allergy", body["patient"].(map[string]any)["medical_history"])
}

func TestRouter_PatientOwnership(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	aliceID := srv.userID(t, "alice")
	own := staff.createPatient(&aliceID)
	other := staff.createPatient(nil)

	alice := srv.login(t, "alice", "patient123")
	rec, _ := alice.do(http.MethodGet, "/api/patients/"+own, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := alice.do(http.MethodGet, "/api/patients/"+other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", body["error"])

	rec, _ = alice.do(http.MethodGet, "/api/billing/"+other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = alice.do(http.MethodPost, "/api/appointments", map[string]string{
		"patient_id": other,
		"doctor_id":  srv.userID(t, "drsmith"),
		"start_time": "2026-11-02 10:00",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RoleDenied(t *testing.T) {
	srv := newTestServer(t)
	pharma := srv.login(t, "pharma", "pharma123")

	rec, body := pharma.do(http.MethodPost, "/api/patients", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "dob": "1990-04-12", "phone": "5550100",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", body["error"])
}

func TestRouter_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")

	rec, body := staff.do(http.MethodPost, "/api/patients", map[string]any{
		"first_name": "J4ne", "last_name": "Doe", "dob": "1990-04-12", "phone": "5550100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "first_name")

	rec, body = staff.do(http.MethodPost, "/api/appointments", map[string]string{
		"patient_id": newID(),
		"doctor_id":  srv.userID(t, "drsmith"),
		"start_time": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "start_time")
}

func TestRouter_LogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")

	rec, _ := staff.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = staff.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UnknownRoutes(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")

	for _, c := range []*client{srv.anonymous(t), staff} {
		rec, body := c.do(http.MethodGet, "/api/staff", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Not found", body["error"])
	}
}

func TestRouter_EveryAPIRouteHasPolicy(t *testing.T) {
	srv := newTestServer(t)
	for _, r := range srv.e.Routes() {
		if !strings.HasPrefix(r.Path, "/api/") || strings.HasSuffix(r.Path, "/*") {
			continue
		}
		if r.Method == echo.RouteNotFound {
			continue
		}
		_, ok := Policies[r.Method+" "+r.Path]
		assert.True(t, ok, "no policy for %s %s", r.Method, r.Path)
	}
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)
	c := srv.anonymous(t)

	rec, body := c.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	srv.redis.Close()
	rec, body = c.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestRouter_DeletePatientCascades(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	doctor := srv.login(t, "drsmith", "doctor123")
	admin := srv.login(t, "admin", "admin123")
	doctorID := srv.userID(t, "drsmith")
	patientID := staff.createPatient(nil)
	kept := staff.createPatient(nil)

	booking := map[string]string{"patient_id": patientID, "doctor_id": doctorID, "start_time": "2026-11-03 08:00"}
	rec, body := staff.do(http.MethodPost, "/api/appointments", booking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	apptID := body["appointment_id"].(string)

	rec, _ = doctor.do(http.MethodPost, "/api/prescriptions", map[string]string{
		"appointment_id": apptID, "patient_id": patientID, "medication": "Amoxicillin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = admin.do(http.MethodPost, "/api/billing", map[string]any{"patient_id": patientID, "amount": 120.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = admin.do(http.MethodPost, "/api/billing", map[string]any{"patient_id": kept, "amount": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = admin.do(http.MethodDelete, "/api/patients/"+patientID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = admin.do(http.MethodGet, "/api/patients/"+patientID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = doctor.do(http.MethodGet, "/api/appointments/"+doctorID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["appointments"])

	srv.store.mu.Lock()
	assert.Empty(t, srv.store.prescriptions)
	require.Len(t, srv.store.bills, 1)
	for _, b := range srv.store.bills {
		assert.Equal(t, kept, b.PatientID)
	}
	srv.store.mu.Unlock()

	booking["patient_id"] = kept
	rec, _ = staff.do(http.MethodPost, "/api/appointments", booking)
	assert.Equal(t, http.StatusCreated, rec.Code, "freed slot can be booked again")
}

func TestRouter_DeleteUserUnlinksPatients(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.login(t, "reception", "staff123")
	admin := srv.login(t, "admin", "admin123")
	aliceID := srv.userID(t, "alice")
	patientID := staff.createPatient(&aliceID)

	rec, _ := admin.do(http.MethodDelete, "/api/users/"+aliceID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body := admin.do(http.MethodGet, "/api/patients/"+patientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["patient"].(map[string]any)["owner_user_id"])
}
