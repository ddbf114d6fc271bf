package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=Admin Doctor Staff Pharmacy Patient"`
	FullName string `json:"full_name" validate:"required,max=100"`
}

type createUserResponse struct {
	OK     bool   `json:"ok"`
	UserID string `json:"user_id"`
}

// Create adds an account with a fixed role.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string             true  "CSRF token"
// @Param        body          body      createUserRequest  true  "Account"
// @Success      201           {object}  createUserResponse
// @Failure      400           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Failure      409           {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req, func(r *createUserRequest) {
		r.Username = sanitize(r.Username, maxName)
		r.FullName = sanitize(r.FullName, 2*maxName)
	}); err != nil {
		return err
	}

	u, err := h.service.Create(c.Request().Context(), ports.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createUserResponse{OK: true, UserID: u.ID})
}

// Delete removes an account and everything it owns.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Param        id            path      string  true  "User id"
// @Success      200           {object}  okResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return okEmpty(c)
}
