package completion

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSuperseded rejects a pending handle that was replaced by a newer call
// of the same kind before the engine answered.
var ErrSuperseded = errors.New("superseded by a newer request")

// Handle is a one-shot result. The first Resolve or Reject wins; later calls
// are ignored.
type Handle[T any] struct {
	id   string
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func NewHandle[T any]() *Handle[T] {
	return &Handle[T]{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// Resolved returns a handle that has already completed with v.
func Resolved[T any](v T) *Handle[T] {
	h := NewHandle[T]()
	h.Resolve(v)
	return h
}

// ID correlates the handle across log lines.
func (h *Handle[T]) ID() string { return h.id }

func (h *Handle[T]) Resolve(v T) bool {
	won := false
	h.once.Do(func() {
		h.val = v
		won = true
		close(h.done)
	})
	return won
}

func (h *Handle[T]) Reject(err error) bool {
	won := false
	h.once.Do(func() {
		h.err = err
		won = true
		close(h.done)
	})
	return won
}

// Done is closed once the handle completes.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks until the handle completes or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result reports the outcome without blocking. ok is false while pending.
func (h *Handle[T]) Result() (val T, err error, ok bool) {
	select {
	case <-h.done:
		return h.val, h.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
