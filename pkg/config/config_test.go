package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	ec, err := cfg.EndpointerConfig()
	require.NoError(t, err)
	assert.Equal(t, 16000, ec.SampleRate)
	assert.Equal(t, 480, ec.FrameSamples)
	assert.Equal(t, 10, ec.LeadInFrames)
	assert.Equal(t, float32(0.5), ec.Threshold)
	assert.Equal(t, 5*time.Second, ec.Timeout)
	assert.Equal(t, -1, cfg.Audio.DeviceIndex)
	assert.Equal(t, "", cfg.RecordingPath("x"))
}

func TestLoadFromReader(t *testing.T) {
	yml := `
audio:
  sample_rate: 8000
  frame_ms: 20
endpoint:
  silence: 500ms
  threshold: 0.6
  keep_trailing_silence: true
  timeout: 8s
llm:
  provider: echo
tts:
  provider: none
recordings_dir: /tmp/rec
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Audio.SampleRate)
	assert.Equal(t, 160, cfg.FrameSamples())
	assert.Equal(t, 500*time.Millisecond, cfg.Endpoint.Silence)
	assert.True(t, cfg.Endpoint.KeepTrailingSilence)
	assert.Equal(t, LLMEcho, cfg.LLM.Provider)
	// Unset keys keep their defaults.
	assert.Equal(t, 10, cfg.Endpoint.LeadInFrames)
	assert.Equal(t, STTOpenAI, cfg.STT.Provider)
	assert.Equal(t, filepath.Join("/tmp/rec", "abc.wav"), cfg.RecordingPath("abc"))
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Audio, cfg.Audio)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("audio:\n  samplerate: 16000\n"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.VAD.Kind = "magic"
	cfg.STT.Provider = "cloud"
	cfg.Endpoint.Threshold = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vad.kind")
	assert.Contains(t, err.Error(), "stt.provider")
	assert.Contains(t, err.Error(), "threshold")
}

func TestValidate_Silero(t *testing.T) {
	cfg := Default()
	cfg.VAD.Kind = VADSilero
	assert.Error(t, cfg.Validate(), "model path is required")

	cfg.VAD.ModelPath = "silero_vad.onnx"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 512, cfg.FrameSamples())

	cfg.Audio.SampleRate = 44100
	assert.Error(t, cfg.Validate())
}

func TestValidate_WhisperCppNeedsModel(t *testing.T) {
	cfg := Default()
	cfg.STT.Provider = STTWhisperCpp
	assert.Error(t, cfg.Validate())

	cfg.STT.ModelPath = "ggml-base.en.bin"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		EnvOpenAIAPIKey:  "sk-test",
		EnvOpenAIBaseURL: "http://proxy/v1",
		EnvOllamaHost:    "http://gpu:11434",
		EnvCoquiURL:      "http://tts:5002",
		EnvLLM:           LLMOpenAI,
		EnvDevice:        "2",
		EnvThreshold:     "0.7",
		EnvTimeout:       "12s",
		EnvStatusAddr:    "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "http://proxy/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "http://gpu:11434", cfg.LLM.Host)
	assert.Equal(t, "http://tts:5002", cfg.TTS.URL)
	assert.Equal(t, LLMOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Audio.DeviceIndex)
	assert.InDelta(t, 0.7, cfg.Endpoint.Threshold, 1e-6)
	assert.Equal(t, 12*time.Second, cfg.Endpoint.Timeout)
	// Empty values do not clear settings.
	assert.Equal(t, "127.0.0.1:8088", cfg.Status.Addr)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for _, key := range []string{EnvDevice, EnvThreshold, EnvTimeout} {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(env(map[string]string{key: "not-a-number"}))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk-assist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: echo\n  model: tiny\n"), 0o644))

	t.Setenv(EnvLLMModel, "override")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, LLMEcho, cfg.LLM.Provider)
	assert.Equal(t, "override", cfg.LLM.Model)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TALK_ASSIST_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TALK_ASSIST_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env"), path))
	assert.Equal(t, "loaded", os.Getenv("TALK_ASSIST_TEST_DOTENV"))
}
