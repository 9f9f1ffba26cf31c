package events

import (
	"sync"
)

// Queue is the single consumer-facing delivery queue. Post never blocks the
// caller; a dedicated goroutine hands events to the consumer in FIFO order.
type Queue struct {
	out  chan Event
	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	pending []Event
	closed  bool
	once    sync.Once
}

// NewQueue starts the delivery goroutine. buf sizes the consumer channel.
func NewQueue(buf int) *Queue {
	if buf < 0 {
		buf = 0
	}
	q := &Queue{
		out:  make(chan Event, buf),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.deliver()
	return q
}

// C is read by the consumer. It is closed after Close.
func (q *Queue) C() <-chan Event { return q.out }

// Post appends e for delivery. It returns false once the queue is closed.
func (q *Queue) Post(e Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Close stops delivery. Events not yet handed to the consumer are discarded.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.pending = nil
		q.mu.Unlock()
		close(q.stop)
	})
	<-q.done
}

func (q *Queue) deliver() {
	defer close(q.done)
	defer close(q.out)

	for {
		e, ok := q.next()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}
		select {
		case q.out <- e:
		case <-q.stop:
			return
		}
	}
}

func (q *Queue) next() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Event{}, false
	}
	e := q.pending[0]
	q.pending[0] = Event{}
	q.pending = q.pending[1:]
	return e, true
}
