package asr

import (
	"context"
	"sync"
)

// MockTranscriber returns scripted text and records what it was asked to transcribe.
type MockTranscriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall is one recorded Transcribe call.
type MockCall struct {
	Samples    int
	SampleRate int
	Language   string
}

// Name returns the provider name.
func (m *MockTranscriber) Name() string {
	return "mock"
}

// Transcribe implements Transcriber.
func (m *MockTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Samples: len(samples), SampleRate: sampleRate, Language: language})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Calls returns the recorded calls.
func (m *MockTranscriber) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Transcriber = (*MockTranscriber)(nil)
