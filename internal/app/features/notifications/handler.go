// internal/app/features/notifications/handler.go
package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/shared"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	notificationstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/notifications"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/httpjson"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/paging"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// Handler owns the notification inbox and the live event stream.
type Handler struct {
	Store *notificationstore.Store
	Hub   *realtime.Hub
	Log   *zap.Logger
}

// NewHandler constructs a notifications Handler.
func NewHandler(store *notificationstore.Store, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Hub: hub, Log: logger}
}

type listResponse struct {
	Items []models.Notification `json:"items"`
	Meta  paging.Meta           `json:"meta"`
}

// List returns the caller's notifications, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	page := paging.Parse(r)
	items, total, err := h.Store.ListByUser(r.Context(), actor.ID, page.Skip(), int64(page.Limit))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	httpjson.Write(w, http.StatusOK, listResponse{Items: items, Meta: paging.MetaFor(page, total)})
}

// MarkRead flags one of the caller's notifications as read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
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

	n, err := h.Store.MarkRead(r.Context(), actor.ID, id)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, n)
}

// MarkAllRead flags every unread notification of the caller as read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	updated, err := h.Store.MarkAllRead(r.Context(), actor.ID)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int64{"updated": updated})
}
