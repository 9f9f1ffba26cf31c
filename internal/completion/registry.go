package completion

import (
	"encoding/json"
	"log/slog"
	"sync"

	"telematics-bridge/internal/engine"
	"telematics-bridge/internal/observability"
)

// TagResult is what a tag command resolves with. Status is always set,
// even for failed operations. Tags is non-nil only for get results and is
// then always encoded, as [] when empty.
type TagResult struct {
	Status string       `json:"status"`
	Tag    *engine.Tag  `json:"tag,omitempty"`
	Tags   []engine.Tag `json:"tags"`
}

func (r TagResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Status string        `json:"status"`
		Tag    *engine.Tag   `json:"tag,omitempty"`
		Tags   *[]engine.Tag `json:"tags,omitempty"`
	}{Status: r.Status, Tag: r.Tag}
	if r.Tags != nil {
		out.Tags = &r.Tags
	}
	return json.Marshal(out)
}

// Registry holds at most one pending tag request per operation and matches
// engine completions back to it.
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[engine.TagOperation]*Handle[TagResult]
}

func NewRegistry(lg *slog.Logger) *Registry {
	if lg == nil {
		lg = observability.Discard()
	}
	return &Registry{
		logger:  lg.With("component", "completion"),
		pending: make(map[engine.TagOperation]*Handle[TagResult]),
	}
}

// Register stores h as the pending request for op. A request already
// pending for op is rejected with ErrSuperseded.
func (r *Registry) Register(op engine.TagOperation, h *Handle[TagResult]) {
	r.mu.Lock()
	prev := r.pending[op]
	r.pending[op] = h
	r.mu.Unlock()

	if prev != nil && prev != h && prev.Reject(ErrSuperseded) {
		observability.HandlesSuperseded.WithLabelValues(op.String()).Inc()
		r.logger.Warn("pending request superseded", "op", op.String(), "request", prev.ID(), "by", h.ID())
	}
}

// Complete resolves the pending request for op, if any, and clears the slot.
// It reports whether a request was resolved; callbacks with nothing pending
// are discarded.
func (r *Registry) Complete(op engine.TagOperation, status engine.StatusCode, tag *engine.Tag, tags []engine.Tag) bool {
	r.mu.Lock()
	h := r.pending[op]
	delete(r.pending, op)
	r.mu.Unlock()

	if h == nil {
		observability.CallbacksDiscarded.WithLabelValues(op.String()).Inc()
		r.logger.Debug("no pending request for completion", "op", op.String())
		return false
	}

	res := TagResult{Status: engine.Translate(status)}
	switch op {
	case engine.OpGetTags:
		res.Tags = append([]engine.Tag{}, tags...)
	case engine.OpAddTag, engine.OpRemoveTag:
		if tag != nil {
			t := *tag
			res.Tag = &t
		}
	}

	observability.TagCompletions.WithLabelValues(op.String(), res.Status).Inc()
	r.logger.Debug("tag operation completed", "op", op.String(), "request", h.ID(), "status", res.Status)
	return h.Resolve(res)
}

// Pending reports whether a request is outstanding for op.
func (r *Registry) Pending(op engine.TagOperation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[op] != nil
}
