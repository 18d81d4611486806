package server

import (
	"github.com/go-chi/chi/v5"
	"vital_geo/database/handler"
)

// SessionRoute holds the session endpoints, including the backend session
// debug view.
func SessionRoute(r chi.Router, h *handler.Handler) {
	r.Get("/status", h.AuthStatus)
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)
	r.Post("/focus", h.Focus)
	r.Get("/checksession", h.CheckSession)
}
