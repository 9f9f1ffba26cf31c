package wizard

import (
	"log/slog"
	"strconv"
	"sync"

	"telematics-bridge/internal/completion"
	"telematics-bridge/internal/observability"
)

// RequestCode identifies the permission wizard among activity results.
const RequestCode = 50005

// Result codes reported by the wizard.
const (
	ResultAllGranted       = -1
	ResultCanceled         = 0
	ResultPartiallyGranted = 1
)

// Granted maps a wizard result code to its outcome. Only ResultAllGranted
// counts as granted.
func Granted(resultCode int) bool {
	return resultCode == ResultAllGranted
}

// Correlator matches the single outstanding wizard launch with its result.
type Correlator struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending *completion.Handle[bool]
}

func NewCorrelator(lg *slog.Logger) *Correlator {
	if lg == nil {
		lg = observability.Discard()
	}
	return &Correlator{logger: lg.With("component", "wizard")}
}

// Launch moves to pending with h. A handle already pending is rejected with
// completion.ErrSuperseded.
func (c *Correlator) Launch(h *completion.Handle[bool]) {
	c.mu.Lock()
	prev := c.pending
	c.pending = h
	c.mu.Unlock()

	if prev != nil && prev != h && prev.Reject(completion.ErrSuperseded) {
		observability.HandlesSuperseded.WithLabelValues("wizard").Inc()
		c.logger.Warn("wizard launch superseded", "request", prev.ID(), "by", h.ID())
	}
}

// Cancel rejects h with err and returns to idle, provided h is still the
// pending handle.
func (c *Correlator) Cancel(h *completion.Handle[bool], err error) bool {
	c.mu.Lock()
	if c.pending != h {
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	c.mu.Unlock()
	return h.Reject(err)
}

// DeliverResult resolves the pending handle when requestCode matches.
// Results for other request codes, or with nothing pending, are ignored.
func (c *Correlator) DeliverResult(requestCode, resultCode int) bool {
	if requestCode != RequestCode {
		return false
	}

	c.mu.Lock()
	h := c.pending
	c.pending = nil
	c.mu.Unlock()

	if h == nil {
		c.logger.Debug("wizard result with nothing pending", "result", resultCode)
		return false
	}

	granted := Granted(resultCode)
	observability.WizardResults.WithLabelValues(strconv.FormatBool(granted)).Inc()
	c.logger.Info("wizard finished", "request", h.ID(), "result", resultCode, "granted", granted)
	return h.Resolve(granted)
}

// Pending reports whether a launch is waiting for its result.
func (c *Correlator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}
