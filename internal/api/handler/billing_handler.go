package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type BillingHandler struct {
	service ports.BillingService
}

func NewBillingHandler(service ports.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

type createBillRequest struct {
	PatientID   string   `json:"patient_id" validate:"required"`
	Amount      *float64 `json:"amount" validate:"required,gte=0"`
	Description string   `json:"description"`
}

type createBillResponse struct {
	OK     bool   `json:"ok"`
	BillID string `json:"bill_id"`
}

type listBillsResponse struct {
	OK      bool           `json:"ok"`
	Billing []*domain.Bill `json:"billing"`
}

// Create charges a patient. New bills start unpaid.
//
// @Summary      Create bill
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string             true  "CSRF token"
// @Param        body          body      createBillRequest  true  "Bill"
// @Success      201           {object}  createBillResponse
// @Failure      400           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Router       /api/billing [post]
func (h *BillingHandler) Create(c echo.Context) error {
	var req createBillRequest
	if err := bindAndValidate(c, &req, func(r *createBillRequest) {
		r.Description = sanitize(r.Description, maxDescription)
	}); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), ports.CreateBillInput{
		PatientID:   req.PatientID,
		Amount:      *req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createBillResponse{OK: true, BillID: id})
}

// ListForPatient returns a patient's bills, newest first.
//
// @Summary      Patient bills
// @Tags         billing
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Patient id"
// @Success      200  {object}  listBillsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/billing/{id} [get]
func (h *BillingHandler) ListForPatient(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	list, err := h.service.ListForPatient(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Bill{}
	}
	return c.JSON(http.StatusOK, listBillsResponse{OK: true, Billing: list})
}

// UpdateStatus marks a bill unpaid, paid or void.
//
// @Summary      Update bill status
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string         true  "CSRF token"
// @Param        id            path      string         true  "Bill id"
// @Param        body          body      statusRequest  true  "New status"
// @Success      200           {object}  okResponse
// @Failure      400           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/billing/{id}/status [patch]
func (h *BillingHandler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req, nil); err != nil {
		return err
	}
	if err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), domain.BillStatus(req.Status)); err != nil {
		return err
	}
	return okEmpty(c)
}
