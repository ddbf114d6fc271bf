package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type PrescriptionHandler struct {
	service ports.PrescriptionService
}

func NewPrescriptionHandler(service ports.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{service: service}
}

type createPrescriptionRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
	PatientID     string `json:"patient_id" validate:"required"`
	Medication    string `json:"medication" validate:"required"`
	Instructions  string `json:"instructions"`
}

type createPrescriptionResponse struct {
	OK             bool   `json:"ok"`
	PrescriptionID string `json:"prescription_id"`
}

type listPrescriptionsResponse struct {
	OK            bool                   `json:"ok"`
	Prescriptions []*domain.Prescription `json:"prescriptions"`
}

// Create writes a prescription against one of the calling doctor's
// appointments.
//
// @Summary      Write prescription
// @Tags         prescriptions
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string                     true  "CSRF token"
// @Param        body          body      createPrescriptionRequest  true  "Prescription"
// @Success      201           {object}  createPrescriptionResponse
// @Failure      400           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Router       /api/prescriptions [post]
func (h *PrescriptionHandler) Create(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	var req createPrescriptionRequest
	if err := bindAndValidate(c, &req, func(r *createPrescriptionRequest) {
		r.Medication = sanitize(r.Medication, maxMedication)
		r.Instructions = sanitize(r.Instructions, maxInstructions)
	}); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), who, ports.CreatePrescriptionInput{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		Medication:    req.Medication,
		Instructions:  req.Instructions,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createPrescriptionResponse{OK: true, PrescriptionID: id})
}

// ListForPatient returns a patient's prescriptions, newest first.
//
// @Summary      Patient prescriptions
// @Tags         prescriptions
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Patient id"
// @Success      200  {object}  listPrescriptionsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/prescriptions/{id} [get]
func (h *PrescriptionHandler) ListForPatient(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	list, err := h.service.ListForPatient(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Prescription{}
	}
	return c.JSON(http.StatusOK, listPrescriptionsResponse{OK: true, Prescriptions: list})
}
