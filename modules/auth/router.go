package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/playtopup/storefront/pkg/session"
)

// AdminRole is the role required for maintenance endpoints.
const AdminRole = "admin"

// Router mounts the auth endpoints.
//
//	r := chi.NewRouter()
//	r.Mount("/auth", auth.Router(svc, manager, transport))
func Router(svc *Service, manager *session.Manager, transport session.Transport) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", svc.Login)
	r.Post("/logout", svc.Logout)
	r.Post("/session/renew", svc.Renew)

	r.Group(func(r chi.Router) {
		r.Use(session.RequireSession(manager, transport))
		r.Post("/logout-all", svc.LogoutAll)
		r.Get("/session", svc.CurrentSession)
		r.Get("/sessions", svc.ListSessions)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireRole(AdminRole))
			r.Post("/maintenance/cleanup", svc.Cleanup)
		})
	})

	return r
}
