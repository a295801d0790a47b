// Package realtime holds the process-wide registry of connected clients used
// by notification fanout. The hub is injected where needed and torn down at
// shutdown, so engine logic can be tested against a bare hub without any
// transport.
//
// Delivery is best effort: pushes to disconnected or slow subscribers are
// dropped, never blocked on. Durability lives in the notifications
// collection, not here.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Event is a single realtime notification payload.
type Event struct {
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// subscriberBuffer is the per-connection queue depth. A subscriber that
// falls this far behind starts losing events.
const subscriberBuffer = 16

// Subscription is one connected client's event stream.
type Subscription struct {
	id     string
	userID string
	role   string
	ch     chan Event
}

// Events returns the channel the subscriber reads from.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Hub maps user ids and roles to live subscriptions.
type Hub struct {
	mu     sync.RWMutex
	closed bool
	byUser map[string]map[string]*Subscription // userID -> subID -> sub
	byRole map[string]map[string]*Subscription // role -> subID -> sub
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{
		byUser: make(map[string]map[string]*Subscription),
		byRole: make(map[string]map[string]*Subscription),
	}
}

// Subscribe registers a client for its per-user stream and its role's
// broadcast stream. Returns nil if the hub is already closed.
func (h *Hub) Subscribe(userID, role string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	sub := &Subscription{
		id:     uuid.NewString(),
		userID: userID,
		role:   role,
		ch:     make(chan Event, subscriberBuffer),
	}
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]*Subscription)
	}
	h.byUser[userID][sub.id] = sub
	if role != "" {
		if h.byRole[role] == nil {
			h.byRole[role] = make(map[string]*Subscription)
		}
		h.byRole[role][sub.id] = sub
	}
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

func (h *Hub) remove(sub *Subscription) {
	if subs := h.byUser[sub.userID]; subs != nil {
		if _, ok := subs[sub.id]; ok {
			delete(subs, sub.id)
			if len(subs) == 0 {
				delete(h.byUser, sub.userID)
			}
			close(sub.ch)
		}
	}
	if sub.role != "" {
		if subs := h.byRole[sub.role]; subs != nil {
			delete(subs, sub.id)
			if len(subs) == 0 {
				delete(h.byRole, sub.role)
			}
		}
	}
}

// PushUser delivers ev to every live subscription for userID. Returns the
// number of deliveries; events to full subscriber queues are dropped and
// counted in the second return.
func (h *Hub) PushUser(userID string, ev Event) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.byUser[userID] {
		if send(sub.ch, ev) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// PushRole delivers ev to every currently-connected member of the role.
func (h *Hub) PushRole(role string, ev Event) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.byRole[role] {
		if send(sub.ch, ev) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// Close tears down the hub, closing all subscriber channels. Further
// Subscribe calls return nil and pushes deliver nothing.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.byUser {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	h.byUser = make(map[string]map[string]*Subscription)
	h.byRole = make(map[string]map[string]*Subscription)
}

func send(ch chan Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
