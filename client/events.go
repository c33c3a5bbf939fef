package client

import (
	"sync"
	"time"

	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/internal/buffer"
)

// EventKind discriminates the notifications an EventBus delivers.
type EventKind int

const (
	EventConnecting EventKind = iota
	EventConnected
	EventDisconnected
	EventError
	EventValueChange
	EventInvocationResult
)

func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	case EventValueChange:
		return "value-change"
	case EventInvocationResult:
		return "invocationResult"
	default:
		return "unknown"
	}
}

// Event is one notification published on the bus. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind
	Time time.Time

	// Path is the dotted path a value-change concerns.
	Path string
	// Value is the new value of a value-change event.
	Value ember.Value

	// InvocationID and Result carry an invocationResult event's payload.
	InvocationID uint32
	Success      bool
	Result       []ember.Value

	Err error
}

const subscriberQueueDepth = 64

type subscriber struct {
	queue *buffer.Buffer[Event]
}

// EventBus is an in-process typed pub/sub registry: each subscriber gets
// its own bounded queue and a dedicated delivery goroutine, so one slow
// callback can never stall the session actor that publishes events or
// another subscriber's delivery.
type EventBus struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

// NewEventBus returns an EventBus ready to accept subscribers.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[*subscriber]struct{})}
}

// Subscribe registers cb to be called, on its own goroutine, for every
// published Event of the given kind. The returned function stops
// delivery and releases the subscription's queue; it is safe to call
// more than once.
func (b *EventBus) Subscribe(kind EventKind, cb func(Event)) (unsubscribe func()) {
	sub := &subscriber{
		queue: buffer.New[Event](subscriberQueueDepth, buffer.DropOldest, nil),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			ev, ok := sub.queue.Read()
			if !ok {
				return
			}
			if ev.Kind == kind {
				cb(ev)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, sub)
			b.mu.Unlock()
			sub.queue.Close()
		})
	}
}

// Publish fans ev out to every current subscriber's queue. A subscriber
// whose queue is full has its oldest buffered event dropped, per the
// bus's DropOldest policy — a stalled UI is never allowed to back-press
// the session actor.
func (b *EventBus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.queue.Write(ev)
	}
}

// Close stops delivery to every current subscriber.
func (b *EventBus) Close() {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.subscribers = make(map[*subscriber]struct{})
	b.mu.Unlock()

	for _, s := range subs {
		s.queue.Close()
	}
}
