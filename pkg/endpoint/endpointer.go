// Package endpoint decides, frame by frame, where an utterance starts and
// ends in a live audio stream.
//
// An Endpointer buffers the most recent pre-speech frames in a ring. The
// first frame scoring at or above the threshold moves it to Speaking: the
// ring is drained into the utterance (oldest first) exactly once and the
// frame is appended. While Speaking, unvoiced frames collect in a pending
// window; a voiced frame folds the window back into the utterance, and a
// window that reaches the grace length finalizes the capture.
//
// An Endpointer is driven by a single goroutine and is not safe for
// concurrent use. Capture runs the loop against a FrameSource.
package endpoint

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

var (
	// ErrFinished is returned by Process once the capture has a final result.
	ErrFinished = errors.New("endpoint: capture already finished")
	// ErrFrameSize is returned when a frame does not match the configured size.
	ErrFrameSize = errors.New("endpoint: frame size mismatch")
)

// Endpointer is the per-capture state machine.
type Endpointer struct {
	cfg        Config
	scorer     vad.Scorer
	frameBytes int
	grace      int
	limit      int
	maxFrames  int

	state   State
	ring    *audio.RingBuffer
	frames  [][]byte
	pending [][]byte

	leadIn     int
	voiced     int
	silence    int
	sinceOnset int
	processed  int

	result        *Result
	onStateChange func(State)
	now           func() time.Time
}

// New creates an Endpointer scoring frames with scorer.
func New(cfg Config, scorer vad.Scorer) (*Endpointer, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint config: %w", err)
	}

	return &Endpointer{
		cfg:        cfg,
		scorer:     scorer,
		frameBytes: cfg.FrameBytes(),
		grace:      cfg.GraceFrames(),
		limit:      cfg.TimeoutFrames(),
		maxFrames:  cfg.MaxFrames(),
		state:      Idle,
		ring:       audio.NewRingBuffer(cfg.LeadInFrames),
		now:        time.Now,
	}, nil
}

// Config returns the configuration the Endpointer was built with.
func (e *Endpointer) Config() Config {
	return e.cfg
}

// State returns the current state.
func (e *Endpointer) State() State {
	return e.state
}

// Result returns the final result, or nil while the capture is running.
func (e *Endpointer) Result() *Result {
	return e.result
}

// OnStateChange registers fn to be called on every state transition.
// fn runs on the goroutine driving the Endpointer and must not block.
func (e *Endpointer) OnStateChange(fn func(State)) {
	e.onStateChange = fn
}

// Process scores one frame and advances the state machine.
// A scorer failure finalizes the capture as ScorerError and is returned.
func (e *Endpointer) Process(frame []byte) (State, error) {
	if e.state == Finished {
		return Finished, ErrFinished
	}
	if len(frame) != e.frameBytes {
		err := fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), e.frameBytes)
		e.Fail(err)
		return e.state, err
	}

	prob, err := e.scorer.Score(frame, e.cfg.SampleRate)
	if err != nil {
		err = fmt.Errorf("vad score failed at frame %d: %w", e.processed, err)
		e.finish(&Result{Outcome: ScorerError, Err: err})
		return e.state, err
	}
	e.processed++

	f := make([]byte, len(frame))
	copy(f, frame)
	voiced := prob >= e.cfg.Threshold

	switch e.state {
	case Idle:
		if voiced {
			e.startSpeech(f)
		} else {
			e.ring.Push(f)
		}
	case Speaking:
		e.sinceOnset++
		if voiced {
			e.frames = append(e.frames, e.pending...)
			e.pending = nil
			e.frames = append(e.frames, f)
			e.voiced++
			e.silence = 0
		} else {
			e.pending = append(e.pending, f)
			if e.sinceOnset > e.cfg.WarmupFrames {
				e.silence++
			}
			if e.silence >= e.grace {
				e.finishSpeech()
				return e.state, nil
			}
		}
	}
	if e.state == Speaking && e.reachedMax() {
		log.Printf("[Endpointer] Utterance reached max duration %v", e.cfg.MaxDuration)
		e.Expire()
		return e.state, nil
	}

	if e.limit > 0 && e.processed >= e.limit {
		e.Expire()
	}
	return e.state, nil
}

// Flush ends the capture because the input ran out. An utterance in
// progress is finalized as if its silence window had elapsed.
func (e *Endpointer) Flush() *Result {
	switch e.state {
	case Idle:
		e.finish(&Result{Outcome: NoSpeech})
	case Speaking:
		e.finishSpeech()
	}
	return e.result
}

// Expire ends the capture on the hard timeout: NoSpeech while Idle,
// Timeout with the accumulated utterance while Speaking.
func (e *Endpointer) Expire() *Result {
	switch e.state {
	case Idle:
		e.finish(&Result{Outcome: NoSpeech})
	case Speaking:
		e.finish(&Result{Outcome: Timeout, Utterance: e.utterance()})
	}
	return e.result
}

// Cancel ends the capture at the caller's request, keeping whatever
// utterance has been accumulated.
func (e *Endpointer) Cancel() *Result {
	switch e.state {
	case Idle:
		e.finish(&Result{Outcome: Cancelled})
	case Speaking:
		e.finish(&Result{Outcome: Cancelled, Utterance: e.utterance()})
	}
	return e.result
}

// Fail ends the capture on a device failure, discarding partial audio.
func (e *Endpointer) Fail(err error) *Result {
	if e.state != Finished {
		e.finish(&Result{Outcome: DeviceError, Err: err})
	}
	return e.result
}

// Reset returns the Endpointer to Idle for a new capture and resets the
// scorer's internal state.
func (e *Endpointer) Reset() error {
	e.ring.Clear()
	e.frames = nil
	e.pending = nil
	e.leadIn = 0
	e.voiced = 0
	e.silence = 0
	e.sinceOnset = 0
	e.processed = 0
	e.result = nil
	e.setState(Idle)
	return vad.Reset(e.scorer)
}

func (e *Endpointer) startSpeech(frame []byte) {
	// The ring is drained exactly once, at onset.
	lead := e.ring.Drain()
	e.leadIn = len(lead)
	e.frames = append(lead, frame)
	e.voiced = 1
	e.silence = 0
	e.sinceOnset = 0
	log.Printf("[Endpointer] Speech started at frame %d (%d lead-in frames)", e.processed, e.leadIn)
	e.setState(Speaking)
}

// reachedMax reports whether the frames since onset, the onset frame
// included, fill MaxDuration. Lead-in frames do not count.
func (e *Endpointer) reachedMax() bool {
	return e.maxFrames > 0 && e.sinceOnset+1 >= e.maxFrames
}

func (e *Endpointer) finishSpeech() {
	u := e.utterance()
	outcome := Speech
	if u.VoicedFrames < e.cfg.MinSpeechFrames {
		outcome = TooShort
	}
	e.finish(&Result{Outcome: outcome, Utterance: u})
}

func (e *Endpointer) utterance() *Utterance {
	frames := e.frames
	trailing := 0
	if e.cfg.KeepTrailingSilence {
		frames = append(frames, e.pending...)
		trailing = len(e.pending)
	}

	pcm := make([]byte, 0, len(frames)*e.frameBytes)
	for _, f := range frames {
		pcm = append(pcm, f...)
	}

	return &Utterance{
		ID:             uuid.NewString(),
		PCM:            pcm,
		SampleRate:     e.cfg.SampleRate,
		Frames:         len(frames),
		LeadInFrames:   e.leadIn,
		VoicedFrames:   e.voiced,
		TrailingFrames: trailing,
		CapturedAt:     e.now(),
	}
}

func (e *Endpointer) finish(r *Result) {
	r.FramesProcessed = e.processed
	e.result = r
	e.frames = nil
	e.pending = nil
	e.ring.Clear()

	if r.Utterance != nil {
		log.Printf("[Endpointer] Finished: %s, %d frames (%v)", r.Outcome, r.Utterance.Frames, r.Utterance.Duration())
	} else if r.Err != nil {
		log.Printf("[Endpointer] Finished: %s: %v", r.Outcome, r.Err)
	} else {
		log.Printf("[Endpointer] Finished: %s after %d frames", r.Outcome, e.processed)
	}
	e.setState(Finished)
}

func (e *Endpointer) setState(s State) {
	if e.state == s {
		return
	}
	e.state = s
	if e.onStateChange != nil {
		e.onStateChange(s)
	}
}
