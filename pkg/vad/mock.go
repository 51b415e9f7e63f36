package vad

import "sync"

// MockScorer is a mock implementation of Scorer for testing.
// It allows customizing the behavior of Score through the ScoreFunc field.
type MockScorer struct {
	// ScoreFunc is called when Score is invoked.
	// If nil, returns 0.0 (no speech detected).
	ScoreFunc func(frame []byte, sampleRate int) (float32, error)

	// Frames records all frames passed to Score for verification.
	Frames [][]byte

	// ResetCalled tracks if Reset was called.
	ResetCalled bool

	// CloseCalled tracks if Close was called.
	CloseCalled bool

	mu sync.Mutex
}

// NewMockScorer creates a new MockScorer with default behavior.
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// NewMockScorerWithProb creates a MockScorer that returns a fixed probability.
func NewMockScorerWithProb(prob float32) *MockScorer {
	return &MockScorer{
		ScoreFunc: func(frame []byte, sampleRate int) (float32, error) {
			return prob, nil
		},
	}
}

// NewMockScorerWithSequence creates a MockScorer that returns probabilities in sequence.
// After all probabilities are returned, it keeps returning the last one.
func NewMockScorerWithSequence(probs []float32) *MockScorer {
	idx := 0
	return &MockScorer{
		ScoreFunc: func(frame []byte, sampleRate int) (float32, error) {
			if len(probs) == 0 {
				return 0, nil
			}
			prob := probs[idx]
			if idx < len(probs)-1 {
				idx++
			}
			return prob, nil
		},
	}
}

// NewMockScorerWithError creates a MockScorer that fails on the n-th call (1-based)
// and returns prob before that.
func NewMockScorerWithError(n int, prob float32, err error) *MockScorer {
	calls := 0
	return &MockScorer{
		ScoreFunc: func(frame []byte, sampleRate int) (float32, error) {
			calls++
			if calls >= n {
				return 0, err
			}
			return prob, nil
		},
	}
}

// Score implements Scorer.
func (m *MockScorer) Score(frame []byte, sampleRate int) (float32, error) {
	m.mu.Lock()
	frameCopy := make([]byte, len(frame))
	copy(frameCopy, frame)
	m.Frames = append(m.Frames, frameCopy)
	fn := m.ScoreFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(frame, sampleRate)
	}
	return 0.0, nil
}

// Reset implements Resetter.
func (m *MockScorer) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalled = true
	return nil
}

// Close implements Closer.
func (m *MockScorer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// CallCount returns the number of times Score was called.
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Frames)
}

var (
	_ Scorer   = (*MockScorer)(nil)
	_ Resetter = (*MockScorer)(nil)
	_ Closer   = (*MockScorer)(nil)
)
