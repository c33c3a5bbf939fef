// Package buffer provides a generic, thread-safe circular buffer with
// configurable overflow policy, adapted to the two policies this module's
// callers need: Block (the S101 framer, which must never silently drop
// an inbound packet) and DropOldest (the client event bus, where a slow
// subscriber must not stall the session actor).
package buffer

import (
	"sync"

	"github.com/emberplus-go/goember/emberrors"
)

// OverflowPolicy selects what happens when Write is called on a full
// buffer.
type OverflowPolicy int

const (
	// Block waits for a reader to free a slot.
	Block OverflowPolicy = iota
	// DropOldest discards the oldest buffered item to make room.
	DropOldest
)

// DropCallback is invoked, outside the buffer's lock, whenever an item is
// dropped by the DropOldest policy.
type DropCallback[T any] func(item T)

// Buffer is a fixed-capacity, thread-safe FIFO.
type Buffer[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []T
	capacity int
	size     int
	head     int
	tail     int
	closed   bool

	policy       OverflowPolicy
	dropCallback DropCallback[T]

	dropped int64
}

// New returns a Buffer with the given capacity and overflow policy.
// Capacity below 1 is treated as 1.
func New[T any](capacity int, policy OverflowPolicy, onDrop DropCallback[T]) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	b := &Buffer[T]{
		items:        make([]T, capacity),
		capacity:     capacity,
		policy:       policy,
		dropCallback: onDrop,
	}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b
}

// Write adds an item according to the buffer's overflow policy. Under
// Block it waits for space or for the buffer to close, returning a
// classified error in the latter case. Under DropOldest it always
// succeeds, evicting the oldest item first if necessary.
func (b *Buffer[T]) Write(item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return emberrors.WrapInvalid(emberrors.ErrConnectionClosed, "buffer", "Write", "buffer closed")
	}

	if b.size == b.capacity {
		switch b.policy {
		case DropOldest:
			dropped := b.items[b.tail]
			b.tail = (b.tail + 1) % b.capacity
			b.size--
			b.dropped++
			if b.dropCallback != nil {
				defer b.dropCallback(dropped)
			}
		case Block:
			for b.size == b.capacity && !b.closed {
				b.notFull.Wait()
			}
			if b.closed {
				return emberrors.WrapInvalid(emberrors.ErrConnectionClosed, "buffer", "Write", "closed while waiting for space")
			}
		}
	}

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	b.size++
	b.notEmpty.Signal()
	return nil
}

// Read removes and returns the oldest item, blocking until one is
// available or the buffer is closed.
func (b *Buffer[T]) Read() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	for b.size == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	if b.size == 0 {
		return zero, false
	}

	item := b.items[b.tail]
	b.items[b.tail] = zero
	b.tail = (b.tail + 1) % b.capacity
	b.size--
	b.notFull.Signal()
	return item, true
}

// TryRead removes and returns the oldest item without blocking.
func (b *Buffer[T]) TryRead() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if b.size == 0 {
		return zero, false
	}
	item := b.items[b.tail]
	b.items[b.tail] = zero
	b.tail = (b.tail + 1) % b.capacity
	b.size--
	b.notFull.Signal()
	return item, true
}

// Size returns the current number of buffered items.
func (b *Buffer[T]) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Dropped returns the number of items discarded by the DropOldest policy
// over the buffer's lifetime.
func (b *Buffer[T]) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close wakes any blocked Write/Read callers; subsequent Writes fail and
// subsequent Reads drain remaining items then return false.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
}
