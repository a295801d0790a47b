// internal/app/features/auth/routes.go
package auth

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the public auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}
