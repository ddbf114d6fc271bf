package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/ports"
)

type PatientHandler struct {
	service ports.PatientService
}

func NewPatientHandler(service ports.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

type createPatientRequest struct {
	FirstName      string  `json:"first_name" validate:"required,personname"`
	LastName       string  `json:"last_name" validate:"required,personname"`
	DOB            string  `json:"dob" validate:"required,dob"`
	Phone          string  `json:"phone" validate:"required,phone"`
	MedicalHistory string  `json:"medical_history"`
	OwnerUserID    *string `json:"owner_user_id" validate:"omitempty,objectid"`
}

type createPatientResponse struct {
	OK        bool   `json:"ok"`
	PatientID string `json:"patient_id"`
}

type patientResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DOB            string    `json:"dob"`
	Phone          string    `json:"phone"`
	MedicalHistory string    `json:"medical_history"`
	OwnerUserID    *string   `json:"owner_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type getPatientResponse struct {
	OK      bool            `json:"ok"`
	Patient patientResponse `json:"patient"`
}

// Create registers a patient record.
//
// @Summary      Register patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string                true  "CSRF token"
// @Param        body          body      createPatientRequest  true  "Patient"
// @Success      201           {object}  createPatientResponse
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Router       /api/patients [post]
func (h *PatientHandler) Create(c echo.Context) error {
	var req createPatientRequest
	if err := bindAndValidate(c, &req, func(r *createPatientRequest) {
		r.FirstName = sanitize(r.FirstName, maxName)
		r.LastName = sanitize(r.LastName, maxName)
		r.DOB = sanitize(r.DOB, maxDOB)
		r.Phone = sanitize(r.Phone, maxPhone)
		r.MedicalHistory = sanitize(r.MedicalHistory, maxHistory)
	}); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), ports.CreatePatientInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DOB:            req.DOB,
		Phone:          req.Phone,
		MedicalHistory: req.MedicalHistory,
		OwnerUserID:    req.OwnerUserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createPatientResponse{OK: true, PatientID: id})
}

// Get returns a patient record as visible to the caller. Pharmacy callers
// receive a redacted medical history.
//
// @Summary      Get patient
// @Tags         patients
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Patient id"
// @Success      200  {object}  getPatientResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/patients/{id} [get]
func (h *PatientHandler) Get(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	view, err := h.service.Get(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, getPatientResponse{OK: true, Patient: patientResponse(*view)})
}

// Delete removes a patient with its appointments, prescriptions and bills.
//
// @Summary      Delete patient
// @Tags         patients
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Param        id            path      string  true  "Patient id"
// @Success      200           {object}  okResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/patients/{id} [delete]
func (h *PatientHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return okEmpty(c)
}
