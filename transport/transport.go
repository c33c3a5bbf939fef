// Package transport names the byte-stream and clock collaborators the
// session engine consumes, and ships two concrete implementations:
// TCP (the common case, a direct connection to an Ember+ device) and
// WSBridge (a WebSocket-to-TCP bridge, for browser-hosted control
// surfaces).
package transport

import (
	"context"
	"time"
)

// EventKind discriminates the events a ByteStream emits.
type EventKind int

const (
	EventConnecting EventKind = iota
	EventConnected
	EventDisconnected
	EventError
	EventData
)

// Event is one lifecycle or data notification from a ByteStream.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// ByteStream is the duplex byte transport the session engine consumes;
// the library ships TCP and WSBridge, but any implementation satisfying
// this interface plugs in the same way.
type ByteStream interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	Write(b []byte) (int, error)
	Events() <-chan Event
}

// Clock abstracts time so the pipeline's deadline logic is testable
// without real sleeps. The s101 Session accepts a Clock, but its
// keep-alive ticker and liveness check run on the wall clock.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the Clock backed by the real wall clock and timers.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Stats reports cumulative transport-level counters for a ByteStream
// implementation, narrowed from the teacher's broader health-reporting
// surface to what this library needs.
type Stats struct {
	BytesIn    int64
	BytesOut   int64
	Reconnects int64
	LastError  error
}
