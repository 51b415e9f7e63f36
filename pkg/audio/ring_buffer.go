// Package audio provides audio processing utilities.
//
// RingBuffer implements a fixed-size circular buffer of PCM frames.
// Used for lead-in buffering in the endpointer to keep the audio just before
// speech is detected, so word onsets are not clipped.
//
// Main features:
//   - Fixed capacity in frames, set at construction
//   - Oldest frame evicted when a push overflows the capacity
//   - Thread-safe push/drain operations
//
// Usage:
//
//	rb := NewRingBuffer(10) // keep the last 10 frames
//	rb.Push(frame)
//	leadIn := rb.Drain()
package audio

import (
	"sync"
)

// RingBuffer is a fixed-size circular buffer of PCM frames.
type RingBuffer struct {
	frames   [][]byte
	capacity int // total capacity in frames
	head     int // position of the oldest frame
	size     int // current number of frames
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer holding at most capacity frames.
// A capacity below zero is treated as zero; a zero-capacity buffer drops
// every frame pushed into it.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuffer{
		frames:   make([][]byte, capacity),
		capacity: capacity,
	}
}

// Push appends a frame to the ring buffer.
// If the buffer is full, the oldest frame is evicted.
// The buffer keeps the slice as given; callers must not reuse it.
func (rb *RingBuffer) Push(frame []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.capacity == 0 {
		return
	}

	if rb.size < rb.capacity {
		rb.frames[(rb.head+rb.size)%rb.capacity] = frame
		rb.size++
		return
	}

	// Full: overwrite the oldest slot and advance the head
	rb.frames[rb.head] = frame
	rb.head = (rb.head + 1) % rb.capacity
}

// Frames returns the buffered frames in chronological order.
// Does not modify the buffer state.
func (rb *RingBuffer) Frames() [][]byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.snapshot()
}

// Drain returns the buffered frames oldest first and empties the buffer.
func (rb *RingBuffer) Drain() [][]byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := rb.snapshot()
	rb.reset()
	return out
}

// Clear resets the buffer to empty state.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.reset()
}

// Len returns the current number of frames in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Capacity returns the total capacity of the buffer in frames.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

func (rb *RingBuffer) snapshot() [][]byte {
	if rb.size == 0 {
		return nil
	}

	result := make([][]byte, rb.size)
	for i := 0; i < rb.size; i++ {
		result[i] = rb.frames[(rb.head+i)%rb.capacity]
	}
	return result
}

func (rb *RingBuffer) reset() {
	for i := range rb.frames {
		rb.frames[i] = nil
	}
	rb.head = 0
	rb.size = 0
}
