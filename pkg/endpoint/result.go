package endpoint

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// State is the Endpointer's position in its capture lifecycle.
type State int

const (
	// Idle is waiting for speech; frames go to the lead-in ring.
	Idle State = iota
	// Speaking has seen speech; frames accumulate into the utterance.
	Speaking
	// Finished holds a final Result and accepts no more frames.
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Speaking:
		return "speaking"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Outcome tags how a capture ended.
type Outcome int

const (
	// Speech means the silence window closed a non-empty utterance.
	Speech Outcome = iota + 1
	// NoSpeech means the capture ended without ever detecting speech.
	// The Utterance is nil.
	NoSpeech
	// TooShort means audio was captured but held fewer voiced frames than
	// the configured minimum.
	TooShort
	// Timeout means the capture hit its hard limit while speech was in
	// progress. The accumulated utterance is kept.
	Timeout
	// Cancelled means the caller stopped the capture. Accumulated audio is
	// kept; the Utterance is nil if speech never started.
	Cancelled
	// DeviceError means the audio source failed. Partial audio is discarded.
	DeviceError
	// ScorerError means the VAD scorer failed. Partial audio is discarded.
	ScorerError
)

func (o Outcome) String() string {
	switch o {
	case Speech:
		return "speech"
	case NoSpeech:
		return "no_speech"
	case TooShort:
		return "too_short"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case DeviceError:
		return "device_error"
	case ScorerError:
		return "scorer_error"
	default:
		return "unknown"
	}
}

// IsError reports whether the outcome is a failure rather than a normal end.
func (o Outcome) IsError() bool {
	return o == DeviceError || o == ScorerError
}

// Result is the final product of one capture.
type Result struct {
	Outcome Outcome
	// Utterance is nil for NoSpeech and the error outcomes.
	Utterance *Utterance
	// Err is set for DeviceError and ScorerError.
	Err error
	// FramesProcessed counts the frames scored by the Endpointer.
	FramesProcessed int
	// FramesDropped counts frames the source reported as lost to overflow.
	FramesDropped int
}

// HasAudio reports whether the result carries captured audio.
func (r *Result) HasAudio() bool {
	return r != nil && r.Utterance != nil && len(r.Utterance.PCM) > 0
}

// Utterance is a finalized, immutable block of captured speech: the lead-in
// frames, the speech frames and any interior pauses, in arrival order.
type Utterance struct {
	ID         string
	PCM        []byte
	SampleRate int
	// Frames is the total frame count, LeadInFrames of which came from the
	// pre-speech ring and VoicedFrames of which scored as speech.
	Frames         int
	LeadInFrames   int
	VoicedFrames   int
	TrailingFrames int
	CapturedAt     time.Time
}

// Duration returns the audio length of the utterance.
func (u *Utterance) Duration() time.Duration {
	return audio.Duration(len(u.PCM), u.SampleRate)
}

// Samples returns the utterance as normalized float32 samples in [-1, 1],
// the form transcribers consume.
func (u *Utterance) Samples() []float32 {
	return audio.BytesToFloat32(u.PCM)
}

// WriteWAV encodes the utterance as a 16-bit mono WAV stream.
func (u *Utterance) WriteWAV(w io.WriteSeeker) error {
	return audio.EncodeWAV(w, u.PCM, u.SampleRate)
}

// Save writes the utterance to a WAV file at path.
func (u *Utterance) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save utterance %s: %w", u.ID, err)
	}
	if err := u.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
