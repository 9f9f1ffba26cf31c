package engine

// Tag is a marker attached to future tracked trips.
type Tag struct {
	Tag    string `json:"tag"`
	Source string `json:"source"`
}

// LocationSample is a position fix reported by the engine.
type LocationSample struct {
	Latitude  float64
	Longitude float64
}

// SpeedViolation is reported when the observed speed exceeds the
// registered limit for longer than the registered timeout.
type SpeedViolation struct {
	Timestamp     float64
	Latitude      float64
	Longitude     float64
	ObservedSpeed float64
	SpeedLimit    float64
}

// TagOperation identifies which tag command a completion belongs to.
type TagOperation int

const (
	OpGetTags TagOperation = iota
	OpAddTag
	OpRemoveTag
	OpRemoveAllTags
)

func (op TagOperation) String() string {
	switch op {
	case OpGetTags:
		return "get_tags"
	case OpAddTag:
		return "add_tag"
	case OpRemoveTag:
		return "remove_tag"
	case OpRemoveAllTags:
		return "remove_all_tags"
	default:
		return "unknown"
	}
}

// TagCompletion carries the outcome of a tag operation.
// Tag is set for add/remove, Tags for get, neither for remove-all.
type TagCompletion struct {
	Op     TagOperation
	Status StatusCode
	Tag    *Tag
	Tags   []Tag
}

type CallbackKind int

const (
	CallbackLocationChanged CallbackKind = iota + 1
	CallbackTrackingStateChanged
	CallbackSpeedViolation
	CallbackTagOperationCompleted
	CallbackLowPowerMode
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackLocationChanged:
		return "location_changed"
	case CallbackTrackingStateChanged:
		return "tracking_state_changed"
	case CallbackSpeedViolation:
		return "speed_violation"
	case CallbackTagOperationCompleted:
		return "tag_operation_completed"
	case CallbackLowPowerMode:
		return "low_power_mode"
	default:
		return "unknown"
	}
}

// Callback is the single message type the engine emits. Only the field
// matching Kind is meaningful; Location may be nil when the engine has no fix.
type Callback struct {
	Kind      CallbackKind
	Location  *LocationSample
	Tracking  bool
	Violation *SpeedViolation
	Tags      *TagCompletion
	LowPower  bool
}

func LocationChanged(sample *LocationSample) Callback {
	return Callback{Kind: CallbackLocationChanged, Location: sample}
}

func TrackingStateChanged(tracking bool) Callback {
	return Callback{Kind: CallbackTrackingStateChanged, Tracking: tracking}
}

func SpeedViolationDetected(v *SpeedViolation) Callback {
	return Callback{Kind: CallbackSpeedViolation, Violation: v}
}

func TagOperationCompleted(c TagCompletion) Callback {
	return Callback{Kind: CallbackTagOperationCompleted, Tags: &c}
}

func LowPowerModeChanged(enabled bool) Callback {
	return Callback{Kind: CallbackLowPowerMode, LowPower: enabled}
}
