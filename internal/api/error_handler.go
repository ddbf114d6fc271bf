package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/domain"
)

// errorResponse is the failure envelope for every API error.
type errorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and client messages. Unexpected errors are logged and
// answered with a generic 500 so driver text never reaches the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	fail := func(code int, msg string) (int, errorResponse) {
		return code, errorResponse{Error: msg}
	}

	// Echo's own errors: router 404/405, body limit, recovered panics.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return fail(http.StatusNotFound, "Not found")
		}
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Request().Method).Str("route", c.Path()).Msg("http error")
		}
		return fail(he.Code, fmt.Sprintf("%v", he.Message))
	}

	var inputErr *domain.InputError
	var conflict *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return fail(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fail(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrInvalidCSRF):
		return fail(http.StatusForbidden, "Invalid or missing CSRF token")
	case errors.Is(err, domain.ErrAppointmentMismatch):
		return fail(http.StatusForbidden, "Appointment mismatch/unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return fail(http.StatusForbidden, "Forbidden")
	case errors.As(err, &inputErr):
		return fail(http.StatusBadRequest, inputErr.Msg)
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(http.StatusBadRequest, "Invalid input")
	case errors.As(err, &conflict):
		return http.StatusConflict, errorResponse{Error: "Doctor already has an appointment at that time", Detail: conflict.Detail}
	case errors.Is(err, domain.ErrDoubleBooking):
		return fail(http.StatusConflict, "Doctor already has an appointment at that time")
	case errors.Is(err, domain.ErrUserExists):
		return fail(http.StatusConflict, "Username already taken")
	case errors.Is(err, domain.ErrNotFound):
		return fail(http.StatusNotFound, "Not found")
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("route", c.Path()).
		Msg("unhandled error")

	return fail(http.StatusInternalServerError, "internal server error")
}
