// internal/app/engine/notifier.go
package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	notificationstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/notifications"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/metrics"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// Notifier implements the fanout contract: NotifyUser durably persists a
// notification record and then best-effort pushes it over the realtime
// channel; NotifyRole pushes to every connected member of a role without a
// durable record. Failures on either path are logged and swallowed, never
// surfaced to the triggering state transition.
type Notifier struct {
	store *notificationstore.Store
	hub   *realtime.Hub
	met   *metrics.Metrics
	log   *zap.Logger
}

// NewNotifier wires the fanout against its durable store and realtime hub.
func NewNotifier(store *notificationstore.Store, hub *realtime.Hub, met *metrics.Metrics, log *zap.Logger) *Notifier {
	return &Notifier{store: store, hub: hub, met: met, log: log}
}

// NotifyUser records and pushes one event to one user.
func (n *Notifier) NotifyUser(ctx context.Context, userID primitive.ObjectID, ev realtime.Event) {
	rec := &models.Notification{
		UserID:   userID,
		Title:    ev.Title,
		Message:  ev.Message,
		Category: ev.Category,
		Metadata: ev.Metadata,
	}
	if err := n.store.Insert(ctx, rec); err != nil {
		n.met.IncNotification("failed")
		n.log.Warn("notification persist failed",
			zap.String("user_id", userID.Hex()),
			zap.String("title", ev.Title),
			zap.Error(err))
	} else {
		n.met.IncNotification("persisted")
	}

	delivered, dropped := n.hub.PushUser(userID.Hex(), ev)
	for i := 0; i < delivered; i++ {
		n.met.IncNotification("pushed")
	}
	for i := 0; i < dropped; i++ {
		n.met.IncNotification("dropped")
	}
}

// NotifyRole pushes one event to every currently-connected member of role.
func (n *Notifier) NotifyRole(role string, ev realtime.Event) {
	delivered, dropped := n.hub.PushRole(role, ev)
	for i := 0; i < delivered; i++ {
		n.met.IncNotification("pushed")
	}
	for i := 0; i < dropped; i++ {
		n.met.IncNotification("dropped")
	}
}
