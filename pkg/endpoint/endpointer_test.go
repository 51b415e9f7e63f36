package endpoint

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

const testFrameSamples = 160

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FrameSamples = testFrameSamples
	cfg.LeadInFrames = 10
	cfg.SilenceFrames = 5
	cfg.Timeout = 0
	return cfg
}

// frame returns a frame filled with a marker byte so ordering can be checked.
func frame(marker byte) []byte {
	return bytes.Repeat([]byte{marker}, testFrameSamples*2)
}

func repeat(p float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func concat(parts ...[]float32) []float32 {
	var out []float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// feed processes one frame per probability, marking frame i with byte i.
func feed(t *testing.T, ep *Endpointer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := ep.Process(frame(byte(i)))
		require.NoError(t, err)
	}
}

func newEndpointer(t *testing.T, cfg Config, probs []float32) *Endpointer {
	t.Helper()
	ep, err := New(cfg, vad.NewMockScorerWithSequence(probs))
	require.NoError(t, err)
	return ep
}

func TestLeadInScenario(t *testing.T) {
	probs := concat(repeat(0.1, 10), []float32{0.9}, repeat(0.2, 5))
	ep := newEndpointer(t, testConfig(), probs)

	feed(t, ep, 15)
	assert.Equal(t, Speaking, ep.State(), "grace window not yet elapsed")
	assert.Nil(t, ep.Result())

	feed(t, ep, 1)
	require.Equal(t, Finished, ep.State())

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Speech, r.Outcome)
	require.NotNil(t, r.Utterance)
	assert.Equal(t, 11, r.Utterance.Frames)
	assert.Equal(t, 10, r.Utterance.LeadInFrames)
	assert.Equal(t, 1, r.Utterance.VoicedFrames)
	assert.Equal(t, 0, r.Utterance.TrailingFrames)
	assert.Len(t, r.Utterance.PCM, 11*testFrameSamples*2)
	assert.Equal(t, 16, r.FramesProcessed)
	assert.NotEmpty(t, r.Utterance.ID)
}

func TestUtterancePrefixIsRingContents(t *testing.T) {
	// 25 silent frames overflow the 10-frame ring: frames 15..24 must lead in.
	probs := concat(repeat(0.1, 25), []float32{0.9}, repeat(0.1, 5))
	ep := newEndpointer(t, testConfig(), probs)

	for i := 0; i < 31; i++ {
		_, err := ep.Process(frame(byte(i)))
		require.NoError(t, err)
	}

	r := ep.Result()
	require.NotNil(t, r)
	require.Equal(t, Speech, r.Outcome)

	var want []byte
	for i := 15; i <= 25; i++ {
		want = append(want, frame(byte(i))...)
	}
	assert.Equal(t, want, r.Utterance.PCM)
}

func TestSingleVoicedFrameBoundary(t *testing.T) {
	probs := concat([]float32{0.9}, repeat(0.0, 5))
	ep := newEndpointer(t, testConfig(), probs)

	feed(t, ep, 6)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Speech, r.Outcome)
	require.NotNil(t, r.Utterance)
	assert.Equal(t, 1, r.Utterance.Frames)
	assert.Equal(t, frame(0), r.Utterance.PCM)
}

func TestNoSpeechNeverEntersSpeaking(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.49, 20))

	var states []State
	ep.OnStateChange(func(s State) { states = append(states, s) })

	feed(t, ep, 20)
	assert.Equal(t, Idle, ep.State())

	r := ep.Expire()
	require.NotNil(t, r)
	assert.Equal(t, NoSpeech, r.Outcome)
	assert.Nil(t, r.Utterance, "no speech must be an empty result, not an empty utterance")
	assert.False(t, r.HasAudio())
	assert.Equal(t, []State{Finished}, states)
}

func TestTimeoutInFrames(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * cfg.FrameDuration()
	ep := newEndpointer(t, cfg, repeat(0.1, 30))

	feed(t, ep, 19)
	assert.Equal(t, Idle, ep.State())
	feed(t, ep, 1)
	require.Equal(t, Finished, ep.State())
	assert.Equal(t, NoSpeech, ep.Result().Outcome)
	assert.Nil(t, ep.Result().Utterance)
}

func TestCancelMidSpeech(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.9, 3))
	feed(t, ep, 3)
	require.Equal(t, Speaking, ep.State())

	r := ep.Cancel()
	require.NotNil(t, r)
	assert.Equal(t, Finished, ep.State())
	assert.Equal(t, Cancelled, r.Outcome)
	require.NotNil(t, r.Utterance)
	assert.Equal(t, 3, r.Utterance.Frames)
	assert.Equal(t, 3, r.Utterance.VoicedFrames)
}

func TestCancelWhileIdle(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.1, 4))
	feed(t, ep, 4)

	r := ep.Cancel()
	assert.Equal(t, Cancelled, r.Outcome)
	assert.Nil(t, r.Utterance)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.9, 3))
	feed(t, ep, 3)

	first := ep.Cancel()
	assert.Same(t, first, ep.Expire())
	assert.Same(t, first, ep.Fail(errors.New("late")))
	assert.Same(t, first, ep.Flush())

	_, err := ep.Process(frame(9))
	assert.ErrorIs(t, err, ErrFinished)
}

func TestKeepTrailingSilence(t *testing.T) {
	cfg := testConfig()
	cfg.KeepTrailingSilence = true
	probs := concat(repeat(0.1, 10), []float32{0.9}, repeat(0.2, 5))
	ep := newEndpointer(t, cfg, probs)

	feed(t, ep, 16)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, 16, r.Utterance.Frames)
	assert.Equal(t, 5, r.Utterance.TrailingFrames)
}

func TestInteriorPauseKept(t *testing.T) {
	probs := concat([]float32{0.9}, repeat(0.1, 3), []float32{0.9}, repeat(0.1, 5))
	ep := newEndpointer(t, testConfig(), probs)

	feed(t, ep, 10)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Speech, r.Outcome)
	assert.Equal(t, 5, r.Utterance.Frames)
	assert.Equal(t, 2, r.Utterance.VoicedFrames)

	var want []byte
	for i := 0; i < 5; i++ {
		want = append(want, frame(byte(i))...)
	}
	assert.Equal(t, want, r.Utterance.PCM)
}

func TestWarmupDelaysStop(t *testing.T) {
	tests := []struct {
		name       string
		warmup     int
		finishedAt int
	}{
		{"no warm-up", 0, 3},
		{"warm-up of three frames", 3, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.SilenceFrames = 2
			cfg.WarmupFrames = tt.warmup
			ep := newEndpointer(t, cfg, concat([]float32{0.9}, repeat(0.1, 10)))

			n := 0
			for ep.State() != Finished {
				_, err := ep.Process(frame(byte(n)))
				require.NoError(t, err)
				n++
			}
			assert.Equal(t, tt.finishedAt, n)
			assert.Equal(t, Speech, ep.Result().Outcome)
			assert.Equal(t, 1, ep.Result().Utterance.Frames)
		})
	}
}

func TestTooShort(t *testing.T) {
	cfg := testConfig()
	cfg.MinSpeechFrames = 3
	ep := newEndpointer(t, cfg, concat(repeat(0.9, 2), repeat(0.1, 5)))

	feed(t, ep, 7)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, TooShort, r.Outcome)
	require.NotNil(t, r.Utterance, "too short still carries the captured audio")
	assert.True(t, r.HasAudio())
}

func TestMaxDuration(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = 5 * cfg.FrameDuration()
	ep := newEndpointer(t, cfg, repeat(0.9, 10))

	feed(t, ep, 5)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Timeout, r.Outcome)
	assert.Equal(t, 5, r.Utterance.Frames)
}

func TestMaxDurationCountsFromOnset(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = 5 * cfg.FrameDuration()
	ep := newEndpointer(t, cfg, concat(repeat(0.1, 10), repeat(0.9, 10)))

	// A full lead-in ring must not eat into the cap.
	feed(t, ep, 14)
	assert.Equal(t, Speaking, ep.State())

	_, err := ep.Process(frame(14))
	require.NoError(t, err)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Timeout, r.Outcome)
	assert.Equal(t, 10, r.Utterance.LeadInFrames)
	assert.Equal(t, 15, r.Utterance.Frames)
	assert.Equal(t, 5, r.Utterance.VoicedFrames)
}

func TestMaxDurationOfOneFrameEndsAtOnset(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = cfg.FrameDuration()
	ep := newEndpointer(t, cfg, concat(repeat(0.1, 3), repeat(0.9, 3)))

	feed(t, ep, 4)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, Timeout, r.Outcome)
	assert.Equal(t, 3, r.Utterance.LeadInFrames)
	assert.Equal(t, 4, r.Utterance.Frames)
}

func TestScorerErrorDiscardsAudio(t *testing.T) {
	boom := errors.New("inference failed")
	ep, err := New(testConfig(), vad.NewMockScorerWithError(3, 0.9, boom))
	require.NoError(t, err)

	feed(t, ep, 2)
	_, err = ep.Process(frame(2))
	assert.ErrorIs(t, err, boom)

	r := ep.Result()
	require.NotNil(t, r)
	assert.Equal(t, ScorerError, r.Outcome)
	assert.True(t, r.Outcome.IsError())
	assert.Nil(t, r.Utterance)
	assert.ErrorIs(t, r.Err, boom)
}

func TestFrameSizeMismatchIsDeviceError(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.9, 3))

	_, err := ep.Process([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrFrameSize)
	assert.Equal(t, DeviceError, ep.Result().Outcome)
}

func TestFlush(t *testing.T) {
	ep := newEndpointer(t, testConfig(), repeat(0.1, 3))
	feed(t, ep, 3)
	assert.Equal(t, NoSpeech, ep.Flush().Outcome)

	ep = newEndpointer(t, testConfig(), concat(repeat(0.9, 2), repeat(0.1, 2)))
	feed(t, ep, 4)
	r := ep.Flush()
	assert.Equal(t, Speech, r.Outcome)
	assert.Equal(t, 2, r.Utterance.Frames)
}

func TestReset(t *testing.T) {
	scorer := vad.NewMockScorerWithProb(0.9)
	ep, err := New(testConfig(), scorer)
	require.NoError(t, err)

	feed(t, ep, 2)
	ep.Cancel()
	require.Equal(t, Finished, ep.State())

	require.NoError(t, ep.Reset())
	assert.Equal(t, Idle, ep.State())
	assert.Nil(t, ep.Result())
	assert.True(t, scorer.ResetCalled)

	feed(t, ep, 1)
	assert.Equal(t, Speaking, ep.State())
}

func TestUtteranceSamplesAndWAV(t *testing.T) {
	ep := newEndpointer(t, testConfig(), concat(repeat(0.9, 2), repeat(0.1, 5)))
	feed(t, ep, 7)

	u := ep.Result().Utterance
	require.NotNil(t, u)
	assert.Len(t, u.Samples(), 2*testFrameSamples)
	assert.Equal(t, 2*testConfig().FrameDuration(), u.Duration())

	path := t.TempDir() + "/utterance.wav"
	require.NoError(t, u.Save(path))

	clip, err := audio.ReadWAVFile(path)
	require.NoError(t, err)
	assert.Equal(t, u.SampleRate, clip.SampleRate)
	assert.Equal(t, u.PCM, clip.PCM)

	assert.Error(t, u.Save(t.TempDir()+"/missing/utterance.wav"))
}

func TestNewValidates(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Threshold = 0
	_, err = New(cfg, vad.NewMockScorer())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.SilenceFrames = 0
	cfg.SilenceDuration = 0
	_, err = New(cfg, vad.NewMockScorer())
	assert.Error(t, err)
}

func TestGraceFramesRoundsUp(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 480, cfg.FrameSamples)
	assert.Equal(t, 10, cfg.GraceFrames())

	cfg.SilenceDuration = 310 * time.Millisecond
	assert.Equal(t, 11, cfg.GraceFrames())
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "speaking", Speaking.String())
	assert.Equal(t, "no_speech", NoSpeech.String())
	assert.Equal(t, "cancelled", Cancelled.String())
}
