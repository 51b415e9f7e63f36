package vad

import "github.com/realtime-ai/talk-assist/pkg/audio"

// Detector is a yes/no voice detector, the shape of WebRTC-style VADs.
type Detector func(frame []byte, sampleRate int) (bool, error)

// Bool adapts a yes/no Detector to the Scorer interface: speech scores 1,
// silence scores 0. Any threshold in (0, 1] then reproduces the detector's
// own decision.
type Bool struct {
	Detect Detector
}

// NewBool wraps d as a Scorer.
func NewBool(d Detector) *Bool {
	return &Bool{Detect: d}
}

// Score implements Scorer.
func (b *Bool) Score(frame []byte, sampleRate int) (float32, error) {
	speech, err := b.Detect(frame, sampleRate)
	if err != nil {
		return 0, err
	}
	if speech {
		return 1, nil
	}
	return 0, nil
}

// LevelGate returns a Detector that reports speech when a frame's RMS level
// reaches level (normalized, 0..1).
func LevelGate(level float64) Detector {
	return func(frame []byte, sampleRate int) (bool, error) {
		return audio.RMS(frame) >= level, nil
	}
}

var _ Scorer = (*Bool)(nil)
