package audio

import (
	"log"
	"sync"
)

// PlaybackBuffer feeds a pull-driven output device from a PCM clip.
// The device callback calls Fill with its output slice; whatever the buffer
// cannot provide is written as silence.
type PlaybackBuffer struct {
	mu     sync.Mutex
	buffer []byte

	sampleRate int
	done       chan struct{}
	doneOnce   sync.Once
}

// NewPlaybackBuffer creates a buffer for 16-bit mono PCM at sampleRate.
func NewPlaybackBuffer(sampleRate int) *PlaybackBuffer {
	return &PlaybackBuffer{
		sampleRate: sampleRate,
		done:       make(chan struct{}),
	}
}

// Write appends PCM data.
func (pb *PlaybackBuffer) Write(data []byte) {
	if len(data) == 0 {
		return
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.buffer = append(pb.buffer, data...)
}

// Fill copies buffered audio into out and zero-fills the remainder.
// It returns the number of audio bytes copied. When the buffer runs dry,
// Done is closed.
func (pb *PlaybackBuffer) Fill(out []byte) int {
	pb.mu.Lock()
	n := copy(out, pb.buffer)
	pb.buffer = pb.buffer[n:]
	empty := len(pb.buffer) == 0
	pb.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if empty {
		pb.doneOnce.Do(func() { close(pb.done) })
	}
	return n
}

// Done is closed once every written byte has been handed to the device.
func (pb *PlaybackBuffer) Done() <-chan struct{} {
	return pb.done
}

// ClearWithFadeOut drops buffered audio, keeping only fadeOutMs of it with a
// linear fade so an interrupted clip does not end on a click.
// fadeOutMs of 0 clears immediately.
func (pb *PlaybackBuffer) ClearWithFadeOut(fadeOutMs int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if fadeOutMs <= 0 || len(pb.buffer) == 0 {
		pb.buffer = pb.buffer[:0]
		return
	}

	fadeOutBytes := pb.sampleRate * fadeOutMs / 1000 * BytesPerSample
	if fadeOutBytes > len(pb.buffer) {
		fadeOutBytes = len(pb.buffer) - len(pb.buffer)%BytesPerSample
	}

	samples := fadeOutBytes / BytesPerSample
	for i := 0; i < samples; i++ {
		factor := float32(samples-i) / float32(samples)
		idx := i * BytesPerSample
		sample := int16(pb.buffer[idx]) | int16(pb.buffer[idx+1])<<8
		sample = int16(float32(sample) * factor)
		pb.buffer[idx] = byte(sample)
		pb.buffer[idx+1] = byte(sample >> 8)
	}

	pb.buffer = pb.buffer[:fadeOutBytes]
	log.Printf("[Playback] Applied fade-out to %d bytes, discarded rest", fadeOutBytes)
}

// Available returns the number of buffered bytes not yet played.
func (pb *PlaybackBuffer) Available() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return len(pb.buffer)
}

// SampleRate returns the buffer's sample rate.
func (pb *PlaybackBuffer) SampleRate() int {
	return pb.sampleRate
}
