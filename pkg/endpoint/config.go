package endpoint

import (
	"fmt"
	"time"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// Default endpointing parameters.
const (
	DefaultSampleRate      = audio.DefaultSampleRate
	DefaultFrameDuration   = 30 * time.Millisecond
	DefaultLeadInFrames    = 10
	DefaultSilenceDuration = 300 * time.Millisecond
	DefaultThreshold       = 0.5
	DefaultTimeout         = 5 * time.Second
)

// Config holds the Endpointer parameters. All policy knobs are independent.
type Config struct {
	// SampleRate of the incoming 16-bit mono PCM.
	SampleRate int
	// FrameSamples is the number of samples per frame.
	FrameSamples int
	// LeadInFrames is the capacity of the pre-speech ring buffer.
	LeadInFrames int
	// SilenceDuration is how long the score must stay below Threshold
	// before an utterance is finalized. Ignored when SilenceFrames is set.
	SilenceDuration time.Duration
	// SilenceFrames is the grace window in frames.
	SilenceFrames int
	// Threshold is the confidence at or above which a frame counts as speech.
	Threshold float32
	// WarmupFrames after the first speech frame never count toward the
	// silence window, so a short pause right after onset does not end the
	// utterance.
	WarmupFrames int
	// KeepTrailingSilence appends the final grace window to the utterance
	// instead of discarding it.
	KeepTrailingSilence bool
	// MinSpeechFrames is the number of voiced frames an utterance needs to
	// be reported as Speech rather than TooShort.
	MinSpeechFrames int
	// Timeout bounds the whole capture. Zero disables it.
	Timeout time.Duration
	// MaxDuration bounds the audio captured from the speech onset on. Lead-in
	// frames come on top of it. Zero disables it.
	MaxDuration time.Duration
}

// DefaultConfig returns the default endpointing configuration:
// 16kHz, 30ms frames, 10 lead-in frames, 300ms of silence to stop,
// threshold 0.5 and a 5s capture timeout.
func DefaultConfig() Config {
	return Config{
		SampleRate:      DefaultSampleRate,
		FrameSamples:    audio.SamplesForDuration(DefaultSampleRate, DefaultFrameDuration),
		LeadInFrames:    DefaultLeadInFrames,
		SilenceDuration: DefaultSilenceDuration,
		Threshold:       DefaultThreshold,
		MinSpeechFrames: 1,
		Timeout:         DefaultTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameSamples <= 0 {
		return fmt.Errorf("frame samples must be positive, got %d", c.FrameSamples)
	}
	if c.LeadInFrames < 0 {
		return fmt.Errorf("lead-in frames must not be negative, got %d", c.LeadInFrames)
	}
	if c.SilenceFrames < 0 || c.SilenceDuration < 0 {
		return fmt.Errorf("silence window must not be negative")
	}
	if c.SilenceFrames == 0 && c.SilenceDuration == 0 {
		return fmt.Errorf("either silence frames or silence duration must be set")
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %.2f", c.Threshold)
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("warm-up frames must not be negative, got %d", c.WarmupFrames)
	}
	if c.MinSpeechFrames < 0 {
		return fmt.Errorf("min speech frames must not be negative, got %d", c.MinSpeechFrames)
	}
	if c.Timeout < 0 || c.MaxDuration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// FrameBytes returns the byte length of one frame.
func (c Config) FrameBytes() int {
	return audio.FrameBytes(c.FrameSamples)
}

// FrameDuration returns the real-time length of one frame.
func (c Config) FrameDuration() time.Duration {
	return audio.Duration(c.FrameBytes(), c.SampleRate)
}

// GraceFrames returns the silence window in frames, rounding the duration up.
func (c Config) GraceFrames() int {
	if c.SilenceFrames > 0 {
		return c.SilenceFrames
	}
	return framesFor(c.SilenceDuration, c.FrameDuration())
}

// TimeoutFrames returns Timeout as a frame count, 0 when disabled.
func (c Config) TimeoutFrames() int {
	return framesFor(c.Timeout, c.FrameDuration())
}

// MaxFrames returns MaxDuration as a frame count, 0 when disabled.
func (c Config) MaxFrames() int {
	return framesFor(c.MaxDuration, c.FrameDuration())
}

func framesFor(d, frame time.Duration) int {
	if d <= 0 || frame <= 0 {
		return 0
	}
	n := int(d / frame)
	if d%frame != 0 {
		n++
	}
	return n
}
