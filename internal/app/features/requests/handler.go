// internal/app/features/requests/handler.go
package requests

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

// Handler owns the blood request endpoints.
type Handler struct {
	Engine *engine.Service
	Log    *zap.Logger
}

// NewHandler constructs a requests Handler.
func NewHandler(eng *engine.Service, logger *zap.Logger) *Handler {
	return &Handler{Engine: eng, Log: logger}
}

type listResponse struct {
	Items []models.BloodRequest `json:"items"`
	Meta  paging.Meta           `json:"meta"`
}

// Create opens a new request and returns it with its initial match list.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	var in engine.CreateInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, err)
		return
	}

	req, err := h.Engine.Create(r.Context(), actor, in)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, req)
}

// List returns the requests visible to the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	page := paging.Parse(r)
	items, total, err := h.Engine.List(r.Context(), actor, engine.ListParams{
		Status:  r.URL.Query().Get("status"),
		Urgency: r.URL.Query().Get("urgency"),
		Skip:    page.Skip(),
		Limit:   int64(page.Limit),
	})
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if items == nil {
		items = []models.BloodRequest{}
	}
	httpjson.Write(w, http.StatusOK, listResponse{Items: items, Meta: paging.MetaFor(page, total)})
}

// Get returns a single request.
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

	req, err := h.Engine.Get(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// Rematch rebuilds the match list for a pending request.
func (h *Handler) Rematch(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.Engine.Rematch(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// Accept records the calling donor's acceptance.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.Engine.Accept(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// Decline records the calling donor's refusal.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.Engine.Decline(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// Escalate forces the request to critical urgency and triggers the donor
// broadcast.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.Engine.Escalate(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// Cancel closes a request that is not yet in transit.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.Engine.Cancel(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, req)
}

// NearbyDonors lists compatible donors around the request without touching
// its match list.
func (h *Handler) NearbyDonors(w http.ResponseWriter, r *http.Request) {
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

	donors, err := h.Engine.NearbyDonors(r.Context(), actor, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"donors": donors})
}
