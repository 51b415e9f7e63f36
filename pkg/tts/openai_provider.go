package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/realtime-ai/talk-assist/pkg/trace"
)

const (
	openAIDefaultModel = "tts-1"
	openAIDefaultVoice = "alloy"
	// The speech endpoint returns raw pcm and wav at a fixed 24 kHz.
	openAISampleRate = 24000
)

var openAIVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// OpenAISpeechConfig configures the OpenAI speech provider.
type OpenAISpeechConfig struct {
	APIKey  string // Falls back to OPENAI_API_KEY
	BaseURL string // Falls back to OPENAI_BASE_URL, then the public API
	Model   string // "tts-1" or "tts-1-hd"
	// Format is the response format requested, "pcm" (default) or "wav".
	Format string
}

// OpenAISpeech synthesizes speech with the OpenAI audio/speech endpoint.
type OpenAISpeech struct {
	cfg    OpenAISpeechConfig
	client openai.Client
}

// NewOpenAISpeech builds a provider. A missing API key is reported by
// ValidateConfig, not here, so the provider can be listed without one.
func NewOpenAISpeech(cfg OpenAISpeechConfig) *OpenAISpeech {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Format == "" {
		cfg.Format = "pcm"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAISpeech{cfg: cfg, client: openai.NewClient(opts...)}
}

// Name returns the provider name.
func (p *OpenAISpeech) Name() string {
	return "openai"
}

// Model returns the configured speech model.
func (p *OpenAISpeech) Model() string {
	return p.cfg.Model
}

// Synthesize implements Provider.
func (p *OpenAISpeech) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, errors.New("openai speech: empty text")
	}

	voice := req.Voice
	if voice == "" {
		voice = openAIDefaultVoice
	}

	ctx, span := trace.InstrumentTTSRequest(ctx, p.Name(), voice, req.Text)
	defer span.End()

	params := openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          openai.SpeechModel(p.cfg.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(p.cfg.Format),
	}
	if req.Speed != 0 {
		params.Speed = openai.Float(req.Speed)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("openai speech: read body: %w", err)
	}

	return &SynthesizeResponse{
		AudioData:   data,
		AudioFormat: p.getAudioFormat(p.cfg.Format),
	}, nil
}

func (p *OpenAISpeech) getAudioFormat(format string) AudioFormat {
	enc := EncodingPCM
	if format == "wav" {
		enc = EncodingWAV
	}
	return AudioFormat{SampleRate: openAISampleRate, Channels: 1, Encoding: enc}
}

// GetSupportedVoices implements Provider.
func (p *OpenAISpeech) GetSupportedVoices() []string {
	return openAIVoices
}

// GetDefaultVoice implements Provider.
func (p *OpenAISpeech) GetDefaultVoice() string {
	return openAIDefaultVoice
}

// ValidateConfig implements Provider.
func (p *OpenAISpeech) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return errors.New("openai speech: API key is not set, set OPENAI_API_KEY")
	}
	switch p.cfg.Format {
	case "pcm", "wav":
	default:
		return fmt.Errorf("openai speech: unsupported response format %q", p.cfg.Format)
	}
	return nil
}

var _ Provider = (*OpenAISpeech)(nil)
