// Package history provides the fixed-capacity sliding windows used by the
// gesture session and the majority vote over them.
package history

import (
	"math"

	"github.com/bmharper/ringbuffer"
)

// DefaultLength is the capacity of both session histories.
const DefaultLength = 16

// Buffer is a FIFO of fixed capacity. Pushing onto a full buffer evicts the
// oldest value.
type Buffer[T any] struct {
	capacity int
	ring     ringbuffer.RingP[T]
}

// NewBuffer creates an empty buffer holding at most capacity values.
// A capacity below 1 is raised to 1.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		capacity: capacity,
		ring:     ringbuffer.NewRingP[T](ringSize(capacity)),
	}
}

// Push appends v, dropping the oldest value once the buffer is full.
func (b *Buffer[T]) Push(v T) {
	b.ring.Add(v)
}

// Len returns the number of values currently held. Never exceeds Cap.
func (b *Buffer[T]) Len() int {
	return min(b.ring.Len(), b.capacity)
}

func (b *Buffer[T]) Cap() int {
	return b.capacity
}

func (b *Buffer[T]) IsFull() bool {
	return b.Len() == b.capacity
}

// Values returns a copy of the contents, oldest first.
func (b *Buffer[T]) Values() []T {
	n := b.Len()
	// The ring is rounded up to a power of 2 and may hold older values
	// beyond our capacity.
	skip := b.ring.Len() - n
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = b.ring.Peek(skip + i)
	}
	return out
}

// Newest returns the most recently pushed value.
func (b *Buffer[T]) Newest() (T, bool) {
	var zero T
	if b.ring.Len() == 0 {
		return zero, false
	}
	return b.ring.Peek(b.ring.Len() - 1), true
}

// Reset empties the buffer.
func (b *Buffer[T]) Reset() {
	b.ring = ringbuffer.NewRingP[T](ringSize(b.capacity))
}

// ringSize leaves one spare slot so a full ring always covers capacity.
func ringSize(capacity int) int {
	return nextPowerOf2(capacity + 1)
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
