package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type bookRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	DoctorID  string `json:"doctor_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required,slot"`
	Reason    string `json:"reason"`
}

type bookResponse struct {
	OK            bool   `json:"ok"`
	AppointmentID string `json:"appointment_id"`
}

type appointmentResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	StartTime   string    `json:"start_time"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
}

type listAppointmentsResponse struct {
	OK           bool                  `json:"ok"`
	Appointments []appointmentResponse `json:"appointments"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Book creates an appointment. A second booking of the same doctor and slot
// answers 409.
//
// @Summary      Book appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string       true  "CSRF token"
// @Param        body          body      bookRequest  true  "Booking"
// @Success      201           {object}  bookResponse
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Failure      409           {object}  errorResponse
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Book(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	var req bookRequest
	if err := bindAndValidate(c, &req, func(r *bookRequest) {
		r.StartTime = sanitize(r.StartTime, len(domain.SlotLayout))
		r.Reason = sanitize(r.Reason, maxReason)
	}); err != nil {
		return err
	}

	id, err := h.service.Book(c.Request().Context(), who, ports.BookInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartTime: req.StartTime,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookResponse{OK: true, AppointmentID: id})
}

// ListForDoctor returns a doctor's schedule. Patient callers only see their
// own appointments.
//
// @Summary      Doctor schedule
// @Tags         appointments
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Doctor user id"
// @Success      200  {object}  listAppointmentsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/appointments/{id} [get]
func (h *AppointmentHandler) ListForDoctor(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	rows, err := h.service.ListForDoctor(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]appointmentResponse, len(rows))
	for i, r := range rows {
		out[i] = appointmentResponse(r)
	}
	return c.JSON(http.StatusOK, listAppointmentsResponse{OK: true, Appointments: out})
}

// UpdateStatus moves an appointment to scheduled, completed or canceled.
//
// @Summary      Update appointment status
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string         true  "CSRF token"
// @Param        id            path      string         true  "Appointment id"
// @Param        body          body      statusRequest  true  "New status"
// @Success      200           {object}  okResponse
// @Failure      400           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bindAndValidate(c, &req, nil); err != nil {
		return err
	}
	if err := h.service.UpdateStatus(c.Request().Context(), who, c.Param("id"), domain.AppointmentStatus(req.Status)); err != nil {
		return err
	}
	return okEmpty(c)
}

// Delete removes an appointment and its prescriptions, freeing the slot.
//
// @Summary      Delete appointment
// @Tags         appointments
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Param        id            path      string  true  "Appointment id"
// @Success      200           {object}  okResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return okEmpty(c)
}
