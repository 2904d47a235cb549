// Package notifier fans committed ledger events out to live sessions.
// Delivery is strictly best effort: a user without an open session
// simply misses the push (the durable notification record already
// exists inside the snapshot by the time the hub sees the event).
package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cxls/internal/domain"
	"cxls/pkg/logger"
)

// Event is what a live session receives.
type Event struct {
	Event   string         `json:"event"`
	UserID  domain.UserID  `json:"user_id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Session is one live subscriber connection.
type Session struct {
	userID domain.UserID
	ch     chan Event
}

// Events is the channel the transport (SSE handler) drains.
func (s *Session) Events() <-chan Event { return s.ch }

// Hub tracks live sessions and implements the serializer's EffectSink.
// Broadcasts are additionally published on a Redis channel so external
// observers (admin dashboards, other processes) can follow along.
type Hub struct {
	mu   sync.RWMutex
	subs map[domain.UserID]map[*Session]struct{}

	rdb     redis.UniversalClient // nil disables external publish
	channel string
}

func NewHub(rdb redis.UniversalClient, channel string) *Hub {
	return &Hub{
		subs:    make(map[domain.UserID]map[*Session]struct{}),
		rdb:     rdb,
		channel: channel,
	}
}

// Subscribe registers a live session for the user.
func (h *Hub) Subscribe(userID domain.UserID) *Session {
	s := &Session{userID: userID, ch: make(chan Event, 16)}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Session]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Unsubscribe(s *Session) {
	h.mu.Lock()
	if set, ok := h.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
	h.mu.Unlock()
	close(s.ch)
}

// Notify pushes a committed notification to the user's live sessions.
// No live session is not an error and never blocks the caller.
func (h *Hub) Notify(n domain.Notification) {
	ev := Event{Event: n.Type, UserID: n.UserID, Payload: n.Payload}
	h.mu.RLock()
	for s := range h.subs[n.UserID] {
		select {
		case s.ch <- ev:
		default:
			// slow consumer, drop rather than stall the ledger path
		}
	}
	h.mu.RUnlock()
}

// Broadcast pushes an event to every live session and, when Redis is
// configured, publishes it for external observers.
func (h *Hub) Broadcast(event string, payload map[string]any) {
	ev := Event{Event: event, Payload: payload}
	h.mu.RLock()
	for _, set := range h.subs {
		for s := range set {
			select {
			case s.ch <- ev:
			default:
			}
		}
	}
	h.mu.RUnlock()

	if h.rdb == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := h.rdb.Publish(ctx, h.channel, data).Err(); err != nil {
		logger.Warnf("broadcast publish failed: %v", err)
	}
}
