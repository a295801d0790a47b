// internal/app/features/requests/routes.go
package requests

import (
	"github.com/go-chi/chi/v5"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// MountRoutes mounts the request routes. Auth middleware is applied by the
// caller; role gates are enforced here, ownership inside the engine.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.RequireRole(models.RoleRecipient, models.RoleAdmin)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(auth.RequireRole(models.RoleRecipient, models.RoleAdmin)).Post("/{id}/match", h.Rematch)
	r.With(auth.RequireRole(models.RoleDonor)).Post("/{id}/accept", h.Accept)
	r.With(auth.RequireRole(models.RoleDonor)).Post("/{id}/decline", h.Decline)
	r.With(auth.RequireRole(models.RoleRecipient, models.RoleAdmin)).Post("/{id}/escalate", h.Escalate)
	r.With(auth.RequireRole(models.RoleRecipient, models.RoleAdmin)).Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/nearby-donors", h.NearbyDonors)
}
