package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueue_PostNeverBlocks(t *testing.T) {
	q := NewQueue(0)
	defer q.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Post(Event{Kind: KindLocationChanged, Payload: Location{Latitude: float64(i)}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked without a reader")
	}

	for i := 0; i < 1000; i++ {
		e := receive(t, q)
		assert.Equal(t, float64(i), e.Payload.(Location).Latitude)
	}
}

func TestQueue_CloseClosesConsumerChannel(t *testing.T) {
	q := NewQueue(1)
	q.Post(Event{Kind: KindTrackingStateChanged, Payload: TrackingState{}})
	q.Close()
	q.Close()

	assert.False(t, q.Post(Event{Kind: KindTrackingStateChanged}))

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-q.C():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("consumer channel not closed")
		}
	}
}
