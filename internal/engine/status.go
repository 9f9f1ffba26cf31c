package engine

// StatusCode is the outcome the engine reports for a tag operation.
type StatusCode int

const (
	StatusSuccess StatusCode = iota
	StatusOffline
	StatusInvalidTagSpecified
	StatusInvalidOperation
	StatusInvalidTime
	StatusUnknown
)

const UnknownStatusText = "Unknown error"

// Translate maps a status code to its user-facing text. Codes added by newer
// engine versions fall back to UnknownStatusText.
func Translate(code StatusCode) string {
	switch code {
	case StatusSuccess:
		return "Success"
	case StatusOffline:
		return "Offline"
	case StatusInvalidTagSpecified:
		return "Invalid tag specified"
	case StatusInvalidOperation:
		return "Wrong tag operation"
	case StatusInvalidTime:
		return "Wrong time"
	case StatusUnknown:
		return "Unknown"
	default:
		return UnknownStatusText
	}
}
