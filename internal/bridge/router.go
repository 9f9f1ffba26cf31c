package bridge

import (
	"log/slog"

	"telematics-bridge/internal/completion"
	"telematics-bridge/internal/engine"
	"telematics-bridge/internal/events"
)

// router is the sink registered with the engine. It runs on engine
// goroutines and only touches mutex-guarded or atomic state.
type router struct {
	registry *completion.Registry
	gate     *events.Gate
	logger   *slog.Logger
}

var _ engine.Sink = (*router)(nil)

func (r *router) OnCallback(cb engine.Callback) {
	switch cb.Kind {
	case engine.CallbackTagOperationCompleted:
		if cb.Tags == nil {
			return
		}
		c := cb.Tags
		r.registry.Complete(c.Op, c.Status, c.Tag, c.Tags)

	case engine.CallbackLocationChanged:
		if cb.Location == nil {
			r.gate.Publish(events.KindLocationChanged, nil)
			return
		}
		r.gate.Publish(events.KindLocationChanged, events.Location{
			Latitude:  cb.Location.Latitude,
			Longitude: cb.Location.Longitude,
		})

	case engine.CallbackTrackingStateChanged:
		r.gate.Publish(events.KindTrackingStateChanged, events.TrackingState{Tracking: cb.Tracking})

	case engine.CallbackSpeedViolation:
		if cb.Violation == nil {
			return
		}
		r.gate.Publish(events.KindSpeedViolation, toSpeedViolation(cb.Violation))

	case engine.CallbackLowPowerMode:
		r.gate.Publish(events.KindLowPowerMode, events.LowPowerMode{Enabled: cb.LowPower})

	default:
		r.logger.Debug("unknown engine callback", "kind", cb.Kind.String())
	}
}

// speedViolationSink is installed fresh on every RegisterSpeedViolations call
// and forwards only violations.
type speedViolationSink struct {
	gate *events.Gate
}

func (s *speedViolationSink) OnCallback(cb engine.Callback) {
	if cb.Kind != engine.CallbackSpeedViolation || cb.Violation == nil {
		return
	}
	s.gate.Publish(events.KindSpeedViolation, toSpeedViolation(cb.Violation))
}

func toSpeedViolation(v *engine.SpeedViolation) events.SpeedViolation {
	return events.SpeedViolation{
		Date:       v.Timestamp,
		Latitude:   v.Latitude,
		Longitude:  v.Longitude,
		Speed:      v.ObservedSpeed,
		SpeedLimit: v.SpeedLimit,
	}
}
