// Package vad provides voice activity scorers for the endpointer.
//
// A Scorer maps one PCM frame to a speech confidence in [0, 1]. Scorers may
// keep internal adaptation state between frames of one capture session, so
// callers must feed every frame, in order, without skipping. Reset clears that
// state before a new session.
//
// Available scorers:
//   - Silero: Silero VAD ONNX model (requires the 'vad' build tag and ONNX Runtime)
//   - Energy: pure-Go RMS level scorer
//   - Bool: adapts a yes/no detector to 0/1 confidences
//   - Mock: scripted confidences for tests
package vad

import "errors"

// ErrSampleRate is returned when a frame's sample rate is not supported by the scorer.
var ErrSampleRate = errors.New("vad: unsupported sample rate")

// ErrFrameSize is returned when a frame does not match the scorer's window.
var ErrFrameSize = errors.New("vad: unsupported frame size")

// Scorer defines the interface for frame-level speech scoring.
type Scorer interface {
	// Score returns the speech probability of a 16-bit mono PCM frame
	// sampled at sampleRate. Returns a value in [0, 1]; higher means speech.
	Score(frame []byte, sampleRate int) (float32, error)
}

// Resetter is implemented by scorers that carry state across frames.
type Resetter interface {
	// Reset clears internal state. Call before starting a new audio stream.
	Reset() error
}

// Closer is implemented by scorers holding native resources.
type Closer interface {
	Close() error
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(frame []byte, sampleRate int) (float32, error)

// Score implements Scorer.
func (f ScorerFunc) Score(frame []byte, sampleRate int) (float32, error) {
	return f(frame, sampleRate)
}

// Reset resets s if it carries state.
func Reset(s Scorer) error {
	if r, ok := s.(Resetter); ok {
		return r.Reset()
	}
	return nil
}

// Close releases s if it holds resources.
func Close(s Scorer) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
