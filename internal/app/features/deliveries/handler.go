// internal/app/features/deliveries/handler.go
package deliveries

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/engine"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/shared"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/httpjson"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/paging"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// Handler owns the delivery endpoints.
type Handler struct {
	Engine *engine.Service
	Log    *zap.Logger
}

// NewHandler constructs a deliveries Handler.
func NewHandler(eng *engine.Service, logger *zap.Logger) *Handler {
	return &Handler{Engine: eng, Log: logger}
}

type listResponse struct {
	Items []models.Delivery `json:"items"`
	Meta  paging.Meta       `json:"meta"`
}

// Create schedules transport for a matched request.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	var in engine.CreateDeliveryInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, err)
		return
	}

	d, err := h.Engine.CreateDelivery(r.Context(), actor, in)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, d)
}

// List returns the deliveries visible to the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	page := paging.Parse(r)
	items, total, err := h.Engine.ListDeliveries(r.Context(), actor, r.URL.Query().Get("status"), page.Skip(), int64(page.Limit))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if items == nil {
		items = []models.Delivery{}
	}
	httpjson.Write(w, http.StatusOK, listResponse{Items: items, Meta: paging.MetaFor(page, total)})
}

// Get returns a single delivery.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	id, err := shared.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	d, err := h.Engine.GetDelivery(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

// UpdateStatus applies a courier status report.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	id, err := shared.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	var in engine.DeliveryStatusInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, err)
		return
	}

	d, err := h.Engine.UpdateDeliveryStatus(r.Context(), actor, id, in)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}
