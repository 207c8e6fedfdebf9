package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Subscriber receives every event emitted on a Hub
type Subscriber func(ctx context.Context, event Event)

// Hub fans events out to subscribers synchronously, in subscription order.
type Hub struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	now         func() time.Time
}

func NewHub(subscribers ...Subscriber) *Hub {
	return &Hub{subscribers: subscribers, now: time.Now}
}

func (h *Hub) Subscribe(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, s)
}

// Emit publishes a named event
func (h *Hub) Emit(ctx context.Context, name string, payload Payload) {
	h.dispatch(ctx, Event{Name: name, Kind: KindEvent, Payload: payload, Timestamp: h.now()})
}

// Track publishes a telemetry signal without a payload
func (h *Hub) Track(ctx context.Context, name string) {
	h.dispatch(ctx, Event{Name: name, Kind: KindTelemetry, Timestamp: h.now()})
}

func (h *Hub) dispatch(ctx context.Context, event Event) {
	h.mu.RLock()
	subscribers := append([]Subscriber(nil), h.subscribers...)
	h.mu.RUnlock()

	for _, s := range subscribers {
		h.deliver(ctx, s, event)
	}
}

func (h *Hub) deliver(ctx context.Context, s Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Audit subscriber panicked", "event", event.Name, "panic", r)
		}
	}()
	s(ctx, event)
}

// LogSubscriber writes events to the default slog logger
func LogSubscriber(ctx context.Context, event Event) {
	attrs := []any{"event", event.Name, "kind", event.Kind}
	if event.Payload.Provider != "" {
		attrs = append(attrs, "provider", event.Payload.Provider)
	}
	if event.Payload.User != nil {
		attrs = append(attrs, "user_id", event.Payload.User.ID, "email", event.Payload.User.Email)
	}
	if event.Payload.Error != "" {
		attrs = append(attrs, "error", event.Payload.Error)
	}
	for k, v := range event.Payload.Metadata {
		attrs = append(attrs, k, v)
	}

	if event.Name == EventAuthError {
		slog.WarnContext(ctx, "Audit event", attrs...)
		return
	}
	slog.InfoContext(ctx, "Audit event", attrs...)
}
