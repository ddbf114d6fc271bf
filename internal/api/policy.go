package api

import (
	"net/http"

	"github.com/medora/hospital-system/internal/api/middleware"
	"github.com/medora/hospital-system/internal/core/domain"
)

var (
	anyRole   = domain.RoleSet(nil)
	adminOnly = domain.Roles(domain.RoleAdmin)
)

// Policies is the access table for every route under /api. Routes missing
// from it are answered with 404 by the gatekeeper. Patient callers on the
// per-patient reads are further narrowed to their own records by the
// services.
var Policies = middleware.Policies{
	rule(http.MethodPost, "/api/auth/login"):     {Public: true},
	rule(http.MethodPost, "/api/auth/logout"):    {Roles: anyRole},
	rule(http.MethodGet, "/api/auth/me"):         {Roles: anyRole},
	rule(http.MethodGet, "/api/auth/csrf-token"): {Roles: anyRole},

	rule(http.MethodPost, "/api/users"):       {Roles: adminOnly},
	rule(http.MethodDelete, "/api/users/:id"): {Roles: adminOnly},

	rule(http.MethodPost, "/api/patients"): {Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff)},
	rule(http.MethodGet, "/api/patients/:id"): {
		Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff, domain.RoleDoctor, domain.RolePatient, domain.RolePharmacy),
	},
	rule(http.MethodDelete, "/api/patients/:id"): {Roles: adminOnly},

	rule(http.MethodPost, "/api/appointments"): {Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff, domain.RolePatient)},
	rule(http.MethodGet, "/api/appointments/:id"): {
		Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff, domain.RoleDoctor, domain.RolePatient),
	},
	rule(http.MethodPatch, "/api/appointments/:id/status"): {Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff, domain.RoleDoctor)},
	rule(http.MethodDelete, "/api/appointments/:id"):       {Roles: domain.Roles(domain.RoleAdmin, domain.RoleStaff)},

	rule(http.MethodPost, "/api/prescriptions"): {Roles: domain.Roles(domain.RoleDoctor)},
	rule(http.MethodGet, "/api/prescriptions/:id"): {
		Roles: domain.Roles(domain.RoleDoctor, domain.RolePharmacy, domain.RoleAdmin, domain.RoleStaff, domain.RolePatient),
	},

	rule(http.MethodPost, "/api/billing"): {Roles: domain.Roles(domain.RoleAdmin, domain.RolePharmacy)},
	rule(http.MethodGet, "/api/billing/:id"): {
		Roles: domain.Roles(domain.RoleAdmin, domain.RolePharmacy, domain.RoleStaff, domain.RolePatient),
	},
	rule(http.MethodPatch, "/api/billing/:id/status"): {Roles: domain.Roles(domain.RoleAdmin, domain.RolePharmacy)},

	rule(http.MethodGet, "/api/notifications"):            {Roles: anyRole},
	rule(http.MethodPatch, "/api/notifications/:id/read"): {Roles: anyRole},
}

func rule(method, path string) string {
	return middleware.Key(method, path)
}
