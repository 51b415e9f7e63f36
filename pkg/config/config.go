// Package config loads the assistant configuration: a YAML file, then a
// .env file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/endpoint"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

// Provider names accepted per section.
const (
	VADEnergy = "energy"
	VADSilero = "silero"
	VADLevel  = "level"

	STTOpenAI     = "openai"
	STTWhisperCpp = "whisper-cpp"
	STTNone       = "none"

	LLMOllama = "ollama"
	LLMOpenAI = "openai"
	LLMEcho   = "echo"

	TTSCoqui  = "coqui"
	TTSOpenAI = "openai"
	TTSNone   = "none"
)

// Config is the complete assistant configuration.
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	VAD      VADConfig      `yaml:"vad"`
	STT      STTConfig      `yaml:"stt"`
	LLM      LLMConfig      `yaml:"llm"`
	TTS      TTSConfig      `yaml:"tts"`
	Status   StatusConfig   `yaml:"status"`

	// RecordingsDir receives a WAV of every captured utterance. Empty disables it.
	RecordingsDir string `yaml:"recordings_dir"`

	// Secrets come from the environment only.
	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"-"`
}

// AudioConfig selects the capture format and device.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	FrameMs    int `yaml:"frame_ms"`
	// DeviceIndex picks a capture device from `talk-assist devices`; -1 is the system default.
	DeviceIndex int `yaml:"device_index"`
	QueueFrames int `yaml:"queue_frames"`
}

// EndpointConfig holds the endpointing policy.
type EndpointConfig struct {
	LeadInFrames        int           `yaml:"lead_in_frames"`
	Silence             time.Duration `yaml:"silence"`
	Threshold           float32       `yaml:"threshold"`
	WarmupFrames        int           `yaml:"warmup_frames"`
	KeepTrailingSilence bool          `yaml:"keep_trailing_silence"`
	MinSpeechFrames     int           `yaml:"min_speech_frames"`
	Timeout             time.Duration `yaml:"timeout"`
	MaxDuration         time.Duration `yaml:"max_duration"`
}

// VADConfig selects the frame scorer.
type VADConfig struct {
	Kind          string  `yaml:"kind"`
	ModelPath     string  `yaml:"model_path"`
	LibraryPath   string  `yaml:"library_path"`
	EnergyFloor   float64 `yaml:"energy_floor"`
	EnergyCeiling float64 `yaml:"energy_ceiling"`
	Level         float64 `yaml:"level"`
}

// STTConfig selects the transcriber.
type STTConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

// LLMConfig selects the fallback responder.
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	Host         string        `yaml:"host"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// TTSConfig selects the speech synthesizer.
type TTSConfig struct {
	Provider string `yaml:"provider"`
	URL      string `yaml:"url"`
	Voice    string `yaml:"voice"`
	Language string `yaml:"language"`
	// Model selects the OpenAI speech model, "tts-1" when empty.
	Model string `yaml:"model"`
}

// StatusConfig configures the status/metrics HTTP listener.
type StatusConfig struct {
	// Addr to listen on. Empty disables the listener.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:  endpoint.DefaultSampleRate,
			FrameMs:     int(endpoint.DefaultFrameDuration / time.Millisecond),
			DeviceIndex: -1,
			QueueFrames: 50,
		},
		Endpoint: EndpointConfig{
			LeadInFrames:    endpoint.DefaultLeadInFrames,
			Silence:         endpoint.DefaultSilenceDuration,
			Threshold:       endpoint.DefaultThreshold,
			MinSpeechFrames: 1,
			Timeout:         endpoint.DefaultTimeout,
		},
		VAD: VADConfig{
			Kind:          VADEnergy,
			EnergyFloor:   vad.DefaultEnergyFloor,
			EnergyCeiling: vad.DefaultEnergyCeiling,
			Level:         0.01,
		},
		STT: STTConfig{Provider: STTOpenAI, Language: "en"},
		LLM: LLMConfig{Provider: LLMOllama, Timeout: 10 * time.Second},
		TTS: TTSConfig{Provider: TTSCoqui, Language: "en"},
		Status: StatusConfig{
			Addr: "127.0.0.1:8088",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result without consulting the environment.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// Validate checks that cfg is coherent and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.FrameMs <= 0 && c.VAD.Kind != VADSilero {
		errs = append(errs, fmt.Errorf("audio.frame_ms must be positive, got %d", c.Audio.FrameMs))
	}
	if c.Audio.QueueFrames < 0 {
		errs = append(errs, fmt.Errorf("audio.queue_frames must not be negative"))
	}

	switch c.VAD.Kind {
	case VADEnergy, VADLevel:
	case VADSilero:
		sc := vad.SileroConfig{ModelPath: c.VAD.ModelPath, SampleRate: c.Audio.SampleRate}
		if err := sc.IsValid(); err != nil {
			errs = append(errs, fmt.Errorf("vad: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("vad.kind %q is invalid; valid values: energy, silero, level", c.VAD.Kind))
	}

	if c.Audio.SampleRate > 0 {
		ec, err := c.EndpointerConfig()
		if err == nil {
			err = ec.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("endpoint: %w", err))
		}
	}

	switch c.STT.Provider {
	case STTOpenAI, STTNone:
	case STTWhisperCpp:
		if c.STT.ModelPath == "" {
			errs = append(errs, fmt.Errorf("stt.model_path is required for whisper-cpp"))
		}
	default:
		errs = append(errs, fmt.Errorf("stt.provider %q is invalid; valid values: openai, whisper-cpp, none", c.STT.Provider))
	}

	switch c.LLM.Provider {
	case LLMOllama, LLMOpenAI, LLMEcho:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is invalid; valid values: ollama, openai, echo", c.LLM.Provider))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must not be negative"))
	}

	switch c.TTS.Provider {
	case TTSCoqui, TTSOpenAI, TTSNone:
	default:
		errs = append(errs, fmt.Errorf("tts.provider %q is invalid; valid values: coqui, openai, none", c.TTS.Provider))
	}

	return errors.Join(errs...)
}

// FrameSamples returns the capture frame length. The Silero model dictates
// its own window; other scorers use audio.frame_ms.
func (c *Config) FrameSamples() int {
	if c.VAD.Kind == VADSilero {
		return vad.SileroConfig{SampleRate: c.Audio.SampleRate}.WindowSamples()
	}
	return audio.SamplesForDuration(c.Audio.SampleRate, time.Duration(c.Audio.FrameMs)*time.Millisecond)
}

// EndpointerConfig converts the file settings into an endpoint.Config.
func (c *Config) EndpointerConfig() (endpoint.Config, error) {
	frame := c.FrameSamples()
	if frame <= 0 {
		return endpoint.Config{}, fmt.Errorf("frame length resolves to %d samples", frame)
	}
	return endpoint.Config{
		SampleRate:          c.Audio.SampleRate,
		FrameSamples:        frame,
		LeadInFrames:        c.Endpoint.LeadInFrames,
		SilenceDuration:     c.Endpoint.Silence,
		Threshold:           c.Endpoint.Threshold,
		WarmupFrames:        c.Endpoint.WarmupFrames,
		KeepTrailingSilence: c.Endpoint.KeepTrailingSilence,
		MinSpeechFrames:     c.Endpoint.MinSpeechFrames,
		Timeout:             c.Endpoint.Timeout,
		MaxDuration:         c.Endpoint.MaxDuration,
	}, nil
}

// RecordingPath returns where the utterance with id is saved, or "" when
// recording is disabled.
func (c *Config) RecordingPath(id string) string {
	if c.RecordingsDir == "" {
		return ""
	}
	return filepath.Join(c.RecordingsDir, id+".wav")
}
