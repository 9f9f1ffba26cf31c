package relay

import (
	"context"
	"log/slog"
	"time"

	"telematics-bridge/internal/events"
	"telematics-bridge/internal/observability"
)

// Sink receives events the consumer has been delivered.
type Sink interface {
	Name() string
	Send(ctx context.Context, deviceID string, ev events.Event) error
}

// Relay is the host-side consumer of the delivery queue. Each event goes to
// every sink in order; a failing sink never blocks the others.
type Relay struct {
	sinks    []Sink
	deviceID func() string
	timeout  time.Duration
	logger   *slog.Logger
}

func New(deviceID func() string, lg *slog.Logger, sinks ...Sink) *Relay {
	if lg == nil {
		lg = observability.Discard()
	}
	return &Relay{
		sinks:    sinks,
		deviceID: deviceID,
		timeout:  5 * time.Second,
		logger:   lg.With("component", "relay"),
	}
}

// Run drains in until it is closed or ctx ends.
func (r *Relay) Run(ctx context.Context, in <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			r.dispatch(ctx, ev)
		}
	}
}

func (r *Relay) dispatch(ctx context.Context, ev events.Event) {
	id := r.deviceID()
	for _, s := range r.sinks {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := s.Send(sctx, id, ev)
		cancel()
		if err != nil {
			observability.RelayErrors.WithLabelValues(s.Name()).Inc()
			r.logger.Warn("sink send failed", "sink", s.Name(), "kind", ev.Kind, "device_id", id, "err", err)
		}
	}
}
