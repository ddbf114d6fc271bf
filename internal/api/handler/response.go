package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/api/middleware"
	"github.com/medora/hospital-system/internal/core/domain"
)

// okResponse is the success envelope. Handlers add their payload next to it.
type okResponse struct {
	OK bool `json:"ok" example:"true"`
}

// errorResponse documents the failure envelope written by the error handler.
type errorResponse struct {
	OK     bool   `json:"ok" example:"false"`
	Error  string `json:"error" example:"Forbidden"`
	Detail string `json:"detail,omitempty"`
}

func okEmpty(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// bindAndValidate decodes the JSON body into req, lets clean normalise it and
// then runs struct validation.
func bindAndValidate[T any](c echo.Context, req *T, clean func(*T)) error {
	if err := c.Bind(req); err != nil {
		return domain.InvalidInput("Invalid input")
	}
	if clean != nil {
		clean(req)
	}
	return c.Validate(req)
}

// caller returns the identity the gatekeeper attached to the request.
func caller(c echo.Context) (domain.Identity, error) {
	sess := middleware.SessionFrom(c)
	if sess == nil || !sess.Identity.Authenticated() {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return sess.Identity, nil
}

type userPayload struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}
