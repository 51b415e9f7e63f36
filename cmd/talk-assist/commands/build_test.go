package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/talk-assist/pkg/command"
	"github.com/realtime-ai/talk-assist/pkg/config"
	"github.com/realtime-ai/talk-assist/pkg/device"
	"github.com/realtime-ai/talk-assist/pkg/llm"
	"github.com/realtime-ai/talk-assist/pkg/tts"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

func TestNewScorer(t *testing.T) {
	cfg := config.Default()
	ec, err := cfg.EndpointerConfig()
	require.NoError(t, err)

	for _, kind := range []string{config.VADEnergy, config.VADLevel} {
		t.Run(kind, func(t *testing.T) {
			cfg.VAD.Kind = kind
			s, err := newScorer(cfg, ec)
			require.NoError(t, err)
			_, ok := s.(*vad.Timed)
			assert.True(t, ok)

			prob, err := s.Score(make([]byte, ec.FrameBytes()), ec.SampleRate)
			require.NoError(t, err)
			assert.Equal(t, float32(0), prob)
		})
	}

	cfg.VAD.Kind = "unknown"
	_, err = newScorer(cfg, ec)
	assert.Error(t, err)
}

func TestNewResponderAndTTS(t *testing.T) {
	cfg := config.Default()

	cfg.LLM.Provider = config.LLMEcho
	r, err := newResponder(cfg)
	require.NoError(t, err)
	assert.Equal(t, llm.Echo{}, r)

	cfg.LLM.Provider = config.LLMOpenAI
	cfg.OpenAIAPIKey = ""
	_, err = newResponder(cfg)
	assert.Error(t, err)

	cfg.TTS.Provider = config.TTSNone
	p, err := newTTSProvider(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.TTS.Provider = config.TTSCoqui
	p, err = newTTSProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &tts.Coqui{}, p)

	cfg.STT.Provider = config.STTNone
	tr, err := newTranscriber(cfg)
	require.NoError(t, err)
	assert.Nil(t, tr)
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	printDevices(&buf, "Capture devices", []device.Info{
		{Index: 0, Name: "Built-in Microphone", IsDefault: true},
		{Index: 1, Name: "USB Headset"},
	})
	printDevices(&buf, "Playback devices", nil)

	assert.Equal(t, "Capture devices:\n * 0: Built-in Microphone\n   1: USB Headset\nPlayback devices:\n  (none)\n", buf.String())
}

func TestPrintMatch(t *testing.T) {
	opened := 0
	c := command.New(command.WithOpener(func(string) error {
		opened++
		return nil
	}))

	var buf bytes.Buffer
	printMatch(&buf, c, "Please open GitHub")
	assert.Equal(t, "command: open_website\n", buf.String())

	buf.Reset()
	printMatch(&buf, c, "how tall is a giraffe")
	assert.Contains(t, buf.String(), "no command")
	assert.Zero(t, opened, "a dry run never opens anything")
}
