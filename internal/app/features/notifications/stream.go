// internal/app/features/notifications/stream.go
package notifications

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/shared"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/httpjson"
)

// keepAliveInterval is how often an SSE comment is written to hold idle
// connections open through proxies.
const keepAliveInterval = 25 * time.Second

// Stream serves the caller's live notifications as server-sent events. The
// connection carries both per-user events and the caller's role broadcasts,
// and stays open until the client disconnects or the hub shuts down.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFrom(r)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpjson.ErrorKind(w, apperr.Internal, "")
		return
	}

	sub := h.Hub.Subscribe(actor.ID.Hex(), actor.Role)
	if sub == nil {
		httpjson.ErrorKind(w, apperr.Internal, "")
		return
	}
	defer h.Hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.Log.Error("event marshal failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
