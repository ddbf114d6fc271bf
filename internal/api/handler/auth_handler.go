package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medora/hospital-system/internal/api/middleware"
	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/pkg/metrics"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	sessions ports.SessionService
	cookie   CookieConfig
}

func NewAuthHandler(sessions ports.SessionService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookie: cookie}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	OK        bool        `json:"ok"`
	User      userPayload `json:"user"`
	CSRFToken string      `json:"csrf_token"`
}

type csrfResponse struct {
	OK        bool   `json:"ok"`
	CSRFToken string `json:"csrf_token"`
}

// Login authenticates the credentials and opens a fresh session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.InvalidInput("Invalid input")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		return domain.InvalidInput("Username and password required")
	}

	ctx := c.Request().Context()
	identity, err := h.sessions.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		}
		return err
	}

	var prior string
	if ck, err := c.Cookie(h.cookie.Name); err == nil {
		prior = ck.Value
	}
	sess, err := h.sessions.Open(ctx, identity, prior)
	if err != nil {
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie(sess.ID, 0))
	return c.JSON(http.StatusOK, sessionResponse{
		OK:        true,
		User:      userPayload{ID: identity.UserID, Role: identity.Role},
		CSRFToken: sess.CSRFToken,
	})
}

// Logout destroys the current session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     SessionCookie
// @Param        X-CSRF-Token  header    string  true  "CSRF token"
// @Success      200           {object}  okResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	if err := h.sessions.Close(c.Request().Context(), sess.ID); err != nil {
		return err
	}
	c.SetCookie(h.sessionCookie("", -1))
	return okEmpty(c)
}

// Me returns the current identity and CSRF token.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, sessionResponse{
		OK:        true,
		User:      userPayload{ID: sess.Identity.UserID, Role: sess.Identity.Role},
		CSRFToken: h.sessions.CSRFToken(sess),
	})
}

// CSRFToken returns the session's current CSRF token.
//
// @Summary      CSRF token
// @Tags         auth
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  csrfResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/csrf-token [get]
func (h *AuthHandler) CSRFToken(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, csrfResponse{OK: true, CSRFToken: h.sessions.CSRFToken(sess)})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
