// Package notify delivers pipeline notifications from background goroutines
// to the presentation layer.
//
// Emitting never blocks and events are delivered in emission order. The
// queue is unbounded: a slow consumer delays delivery but never stalls the
// worker or the control loop.
package notify

import (
	"context"
	"fmt"
	"sync"
)

// Kind identifies the type of a notification.
type Kind int

// Notification kinds.
const (
	KindImageGenerated Kind = iota + 1
	KindLoadingChanged
	KindStatusMessage
)

func (k Kind) String() string {
	switch k {
	case KindImageGenerated:
		return "image-generated"
	case KindLoadingChanged:
		return "loading-changed"
	case KindStatusMessage:
		return "status-message"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single notification. Only the field matching Kind is set.
type Event struct {
	Kind    Kind
	Image   []byte
	Loading bool
	Message string
}

// ImageGenerated returns an event carrying freshly rendered image bytes.
func ImageGenerated(b []byte) Event {
	return Event{Kind: KindImageGenerated, Image: b}
}

// LoadingChanged returns an event toggling the loading indicator.
func LoadingChanged(loading bool) Event {
	return Event{Kind: KindLoadingChanged, Loading: loading}
}

// StatusMessage returns an event carrying a human-readable status line.
func StatusMessage(format string, args ...any) Event {
	return Event{Kind: KindStatusMessage, Message: fmt.Sprintf(format, args...)}
}

// Emitter accepts notifications without blocking.
type Emitter interface {
	Emit(ev Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev Event) { f(ev) }

// Discard is an Emitter that drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Queue is an unbounded FIFO between emitters and a single consumer.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	ready   chan struct{}
	out     chan Event
}

// NewQueue creates an empty queue. Call Run to start delivery.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		out:   make(chan Event),
	}
}

// Emit appends ev to the queue and wakes the pump.
func (q *Queue) Emit(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Events returns the delivery channel. It is never closed.
func (q *Queue) Events() <-chan Event {
	return q.out
}

// Len returns the number of events not yet handed to the consumer.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Run moves queued events onto the delivery channel until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.ready:
		}

		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.mu.Unlock()
				break
			}

			ev := q.pending[0]
			q.pending[0] = Event{}
			q.pending = q.pending[1:]
			q.mu.Unlock()

			select {
			case q.out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
