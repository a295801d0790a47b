// internal/app/features/deliveries/routes.go
package deliveries

import (
	"github.com/go-chi/chi/v5"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// MountRoutes mounts the delivery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.RequireRole(models.RoleAdmin)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(auth.RequireRole(models.RoleCourier, models.RoleAdmin)).Patch("/{id}/status", h.UpdateStatus)
}
