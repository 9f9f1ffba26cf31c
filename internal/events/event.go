package events

import "time"

// Kind is the name the consumer subscribes to.
type Kind string

const (
	KindLocationChanged      Kind = "onLocationChanged"
	KindTrackingStateChanged Kind = "onTrackingStateChanged"
	KindSpeedViolation       Kind = "onSpeedViolation"
	KindLowPowerMode         Kind = "onLowPowerModeEnabled"
)

// Event is one delivery to the consumer. Payload is one of the payload
// types below.
type Event struct {
	Kind     Kind      `json:"kind"`
	Payload  any       `json:"payload"`
	Received time.Time `json:"received"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TrackingState struct {
	Tracking bool `json:"tracking"`
}

type SpeedViolation struct {
	Date       float64 `json:"date"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	SpeedLimit float64 `json:"speedLimit"`
}

type LowPowerMode struct {
	Enabled bool `json:"enabled"`
}
