package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type listNotificationsResponse struct {
	OK            bool                   `json:"ok"`
	Notifications []*domain.Notification `json:"notifications"`
}

// List returns the caller's own notifications.
//
// @Summary      My notifications
// @Tags         notifications
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  listNotificationsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	list, err := h.service.List(c.Request().Context(), who)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return c.JSON(http.StatusOK, listNotificationsResponse{OK: true, Notifications: list})
}

// MarkRead flags one of the caller's notifications as read.
//
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Param        id            path      string  true  "Notification id"
// @Success      200           {object}  okResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Request().Context(), who, c.Param("id")); err != nil {
		return err
	}
	return okEmpty(c)
}
