package vad

import (
	"fmt"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

const (
	// DefaultEnergyFloor is the RMS level at or below which a frame scores 0.
	DefaultEnergyFloor = 0.005
	// DefaultEnergyCeiling is the RMS level at or above which a frame scores 1.
	DefaultEnergyCeiling = 0.03
)

// Energy is a pure-Go scorer mapping a frame's RMS level linearly onto [0, 1]
// between Floor and Ceiling. It needs no model, which makes it the fallback
// when the Silero build is not available.
type Energy struct {
	Floor   float64
	Ceiling float64
}

// NewEnergy creates an energy scorer with the given RMS bounds.
// Zero values select the defaults.
func NewEnergy(floor, ceiling float64) (*Energy, error) {
	if floor == 0 {
		floor = DefaultEnergyFloor
	}
	if ceiling == 0 {
		ceiling = DefaultEnergyCeiling
	}
	if floor < 0 || ceiling > 1 || floor >= ceiling {
		return nil, fmt.Errorf("energy bounds must satisfy 0 <= floor < ceiling <= 1, got %.4f/%.4f", floor, ceiling)
	}
	return &Energy{Floor: floor, Ceiling: ceiling}, nil
}

// Score implements Scorer.
func (e *Energy) Score(frame []byte, sampleRate int) (float32, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrSampleRate, sampleRate)
	}
	if len(frame) == 0 || len(frame)%audio.BytesPerSample != 0 {
		return 0, fmt.Errorf("%w: %d bytes", ErrFrameSize, len(frame))
	}

	level := audio.RMS(frame)
	return clamp01(float32((level - e.Floor) / (e.Ceiling - e.Floor))), nil
}

var _ Scorer = (*Energy)(nil)
