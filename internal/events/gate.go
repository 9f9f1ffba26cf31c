package events

import (
	"log/slog"
	"sync/atomic"
	"time"

	"telematics-bridge/internal/observability"
)

// Gate forwards events to the delivery queue only while the consumer is
// subscribed. Nothing is buffered while unsubscribed.
type Gate struct {
	subscribed atomic.Bool
	queue      *Queue
	logger     *slog.Logger
	now        func() time.Time
}

func NewGate(q *Queue, lg *slog.Logger) *Gate {
	if lg == nil {
		lg = observability.Discard()
	}
	return &Gate{
		queue:  q,
		logger: lg.With("component", "events"),
		now:    time.Now,
	}
}

func (g *Gate) Subscribe()       { g.subscribed.Store(true) }
func (g *Gate) Unsubscribe()     { g.subscribed.Store(false) }
func (g *Gate) Subscribed() bool { return g.subscribed.Load() }

// Publish posts payload under kind. It reports whether the event was queued;
// a nil payload or a missing subscriber drops it.
func (g *Gate) Publish(kind Kind, payload any) bool {
	if !g.subscribed.Load() {
		observability.EventsDropped.WithLabelValues(string(kind), "unsubscribed").Inc()
		return false
	}
	if payload == nil {
		observability.EventsDropped.WithLabelValues(string(kind), "absent").Inc()
		return false
	}
	if !g.queue.Post(Event{Kind: kind, Payload: payload, Received: g.now()}) {
		observability.EventsDropped.WithLabelValues(string(kind), "closed").Inc()
		g.logger.Debug("event after queue close", "kind", kind)
		return false
	}
	observability.EventsPublished.WithLabelValues(string(kind)).Inc()
	return true
}
