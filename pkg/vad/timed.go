package vad

import (
	"log"
	"time"
)

// Timed wraps a Scorer and reports how long each Score call takes.
// Scoring runs on the capture goroutine, so a call that outlasts one frame
// of audio means the input stream will start to overflow.
type Timed struct {
	Scorer Scorer
	// Budget is the real-time length of one frame. Zero disables the warning.
	Budget time.Duration
	// Observe receives every call's latency. May be nil.
	Observe func(time.Duration)

	overBudget int
}

// NewTimed wraps s with latency observation.
func NewTimed(s Scorer, budget time.Duration, observe func(time.Duration)) *Timed {
	return &Timed{Scorer: s, Budget: budget, Observe: observe}
}

// Score implements Scorer.
func (t *Timed) Score(frame []byte, sampleRate int) (float32, error) {
	start := time.Now()
	prob, err := t.Scorer.Score(frame, sampleRate)
	elapsed := time.Since(start)

	if t.Observe != nil {
		t.Observe(elapsed)
	}
	if t.Budget > 0 && elapsed > t.Budget {
		t.overBudget++
		// Log the first miss and then every 100th to keep the capture loop quiet
		if t.overBudget == 1 || t.overBudget%100 == 0 {
			log.Printf("[VAD] Score took %v, frame budget is %v (%d misses)", elapsed, t.Budget, t.overBudget)
		}
	}
	return prob, err
}

// OverBudget returns how many calls exceeded the frame budget.
func (t *Timed) OverBudget() int {
	return t.overBudget
}

// Reset implements Resetter.
func (t *Timed) Reset() error {
	t.overBudget = 0
	return Reset(t.Scorer)
}

// Close implements Closer.
func (t *Timed) Close() error {
	return Close(t.Scorer)
}

var (
	_ Scorer   = (*Timed)(nil)
	_ Resetter = (*Timed)(nil)
	_ Closer   = (*Timed)(nil)
)
