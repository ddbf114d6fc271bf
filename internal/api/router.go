// Package api assembles the HTTP surface: routes, the access table and the
// central error handler.
//
// @title                       Hospital Management API
// @version                     1.0
// @description                 Session-authenticated API for patients, appointments, prescriptions and billing.
// @BasePath                    /
// @securityDefinitions.apikey  SessionCookie
// @in                          cookie
// @name                        hms_session
package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/medora/hospital-system/docs"
	"github.com/medora/hospital-system/internal/api/handler"
	"github.com/medora/hospital-system/internal/api/middleware"
	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/pkg/config"
)

// Services are the use cases the routes delegate to.
type Services struct {
	Sessions      ports.SessionService
	Policy        ports.AccessPolicy
	Users         ports.UserService
	Patients      ports.PatientService
	Appointments  ports.AppointmentService
	Prescriptions ports.PrescriptionService
	Billing       ports.BillingService
	Notifications ports.NotificationService
}

// Options configure the router.
type Options struct {
	Session     config.SessionConfig
	CORSOrigins []string
	// Health checks run by /health/ready, keyed by dependency name.
	Health map[string]handler.Check
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: "hms_http", DoNotUseRequestPathFor404: true}
	metricsHandler := echoprometheus.NewHandler()
	if opts.Registry != nil {
		promCfg.Registerer = opts.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Registry})
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Outside the request logger, which resolves errors into final statuses.
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(echomiddleware.BodyLimit("1M"))
	if len(opts.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, opts.Session.CSRFHeader},
			AllowCredentials: true,
		}))
	}

	// --- Operational endpoints (no session) ---
	health := handler.NewHealthHandler(opts.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	gate := middleware.Gatekeeper(svc.Sessions, svc.Policy, Policies, middleware.GateConfig{
		CookieName: opts.Session.CookieName,
		CSRFHeader: opts.Session.CSRFHeader,
	}, opts.Log.With().Str("component", "gatekeeper").Logger())
	g := e.Group("/api", middleware.SecurityHeaders(), gate)

	auth := handler.NewAuthHandler(svc.Sessions, handler.CookieConfig{
		Name:   opts.Session.CookieName,
		Secure: opts.Session.CookieSecure,
	})
	g.POST("/auth/login", auth.Login)
	g.POST("/auth/logout", auth.Logout)
	g.GET("/auth/me", auth.Me)
	g.GET("/auth/csrf-token", auth.CSRFToken)

	users := handler.NewUserHandler(svc.Users)
	g.POST("/users", users.Create)
	g.DELETE("/users/:id", users.Delete)

	patients := handler.NewPatientHandler(svc.Patients)
	g.POST("/patients", patients.Create)
	g.GET("/patients/:id", patients.Get)
	g.DELETE("/patients/:id", patients.Delete)

	appointments := handler.NewAppointmentHandler(svc.Appointments)
	g.POST("/appointments", appointments.Book)
	g.GET("/appointments/:id", appointments.ListForDoctor)
	g.PATCH("/appointments/:id/status", appointments.UpdateStatus)
	g.DELETE("/appointments/:id", appointments.Delete)

	prescriptions := handler.NewPrescriptionHandler(svc.Prescriptions)
	g.POST("/prescriptions", prescriptions.Create)
	g.GET("/prescriptions/:id", prescriptions.ListForPatient)

	billing := handler.NewBillingHandler(svc.Billing)
	g.POST("/billing", billing.Create)
	g.GET("/billing/:id", billing.ListForPatient)
	g.PATCH("/billing/:id/status", billing.UpdateStatus)

	notifications := handler.NewNotificationHandler(svc.Notifications)
	g.GET("/notifications", notifications.List)
	g.PATCH("/notifications/:id/read", notifications.MarkRead)

	return e
}
