package engine

// Engine is the tracking capability wrapped by the bridge. Implementations
// invoke registered sinks from their own goroutines.
type Engine interface {
	IsInitialized() bool
	Initialize(settings Settings) error

	// Callback hooks. A nil sink passed to SetLocationListener detaches it.
	AddTagsProcessingCallback(sink Sink)
	SetLocationListener(sink Sink) error
	RegisterTrackingStateCallback(sink Sink)
	UnregisterTrackingStateCallback(sink Sink) error

	DeviceID() string
	SetDeviceID(id string)
	Logout()

	AreAllRequiredPermissionsGranted() bool
	AreAllRequiredPermissionsAndSensorsGranted() bool

	IsSdkEnabled() bool
	SetEnableSdk(enable bool)
	IsTracking() bool
	StartTracking()
	StartPersistentTracking()
	StopTracking()

	UploadUnsentTrips()
	UnsentTripCount() int
	SendCustomHeartbeats(reason string)

	SetAccidentDetectionSensitivity(s AccidentSensitivity)
	IsRtdEnabled() bool
	SetAccidentDetectionEnabled(enable bool)
	IsAccidentDetectionEnabled() bool

	SetAutoStartEnabled(enable, permanent bool)
	IsAutoStartEnabled() bool

	// Tag operations complete later through the tags processing callback.
	GetFutureTrackTags()
	AddFutureTrackTag(tag, source string)
	RemoveFutureTrackTag(tag string)
	RemoveAllFutureTrackTags()

	// RegisterSpeedViolations replaces any previously installed violation sink.
	RegisterSpeedViolations(limitKmH float64, timeoutMs int64, sink Sink)
}

// Sink receives engine callbacks. OnCallback may be called concurrently.
type Sink interface {
	OnCallback(cb Callback)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(cb Callback)

func (f SinkFunc) OnCallback(cb Callback) { f(cb) }

// Settings is applied once when the engine is initialized.
type Settings struct {
	StopTrackingTimeout TrackingTimeout
	Accuracy            Accuracy
	AutoStartOn         bool
	HFOn                bool
	ElmOn               bool
}

type TrackingTimeout int

const (
	StopTrackingTimeLow TrackingTimeout = iota
	StopTrackingTimeHigh
)

type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyHigh
)

// DefaultSettings is the fixed configuration the bridge initializes with.
func DefaultSettings() Settings {
	return Settings{
		StopTrackingTimeout: StopTrackingTimeHigh,
		Accuracy:            AccuracyHigh,
		AutoStartOn:         true,
		HFOn:                true,
		ElmOn:               false,
	}
}

type AccidentSensitivity int

const (
	AccidentSensitivityNormal AccidentSensitivity = iota
	AccidentSensitivitySensitive
	AccidentSensitivityTough
)

func (s AccidentSensitivity) String() string {
	switch s {
	case AccidentSensitivitySensitive:
		return "Sensitive"
	case AccidentSensitivityTough:
		return "Tough"
	default:
		return "Normal"
	}
}
