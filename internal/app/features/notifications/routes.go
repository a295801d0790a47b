// internal/app/features/notifications/routes.go
package notifications

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/stream", h.Stream)
	r.Patch("/{id}/read", h.MarkRead)
	r.Post("/read-all", h.MarkAllRead)
}
