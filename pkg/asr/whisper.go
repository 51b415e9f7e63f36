package asr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/trace"
)

// WhisperConfig configures the OpenAI Whisper provider.
type WhisperConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint. Falls back to OPENAI_BASE_URL.
	BaseURL string
	// Model defaults to whisper-1.
	Model string
	// Prompt guides the recognition with expected vocabulary.
	Prompt      string
	Temperature float32
}

// WhisperProvider implements Transcriber using OpenAI's Whisper API.
type WhisperProvider struct {
	client *openai.Client
	cfg    WhisperConfig
}

// NewWhisperProvider creates a new OpenAI Whisper ASR provider.
func NewWhisperProvider(apiKey string) (*WhisperProvider, error) {
	return NewWhisperProviderWithConfig(WhisperConfig{APIKey: apiKey})
}

// NewWhisperProviderWithConfig creates a Whisper provider from cfg.
func NewWhisperProviderWithConfig(cfg WhisperConfig) (*WhisperProvider, error) {
	if cfg.APIKey == "" {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "OpenAI API key is required",
		}
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
		log.Printf("[Whisper STT] Using BaseURL: %s", clientConfig.BaseURL)
	}

	return &WhisperProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the provider name.
func (w *WhisperProvider) Name() string {
	return "openai-whisper"
}

// Transcribe encodes samples as a 16-bit WAV file and sends it to the
// transcription endpoint.
func (w *WhisperProvider) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (string, error) {
	if err := validateSamples(samples, sampleRate); err != nil {
		return "", err
	}

	ctx, span := trace.InstrumentSTTRequest(ctx, w.Name(), language, len(samples)*audio.BytesPerSample)
	defer span.End()

	path, err := writeTempWAV(samples, sampleRate)
	if err != nil {
		trace.RecordError(span, err)
		return "", &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "failed to encode audio",
			Err:     err,
		}
	}
	defer os.Remove(path)

	req := openai.AudioRequest{
		Model:       w.cfg.Model,
		FilePath:    path,
		Prompt:      w.cfg.Prompt,
		Language:    language,
		Temperature: w.cfg.Temperature,
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		trace.RecordError(span, err)
		return "", &Error{
			Code:    classifyAPIError(err),
			Message: "Whisper API request failed",
			Err:     err,
		}
	}

	return strings.TrimSpace(resp.Text), nil
}

// writeTempWAV writes samples to a temporary WAV file and returns its path.
func writeTempWAV(samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp("", "utterance-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := audio.EncodeWAV(f, audio.Float32ToBytes(samples), sampleRate); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// classifyAPIError maps an OpenAI API status to an error code.
func classifyAPIError(err error) ErrorCode {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return ErrCodeAuthenticationFailed
		case 429:
			return ErrCodeQuotaExceeded
		case 400:
			return ErrCodeInvalidAudio
		}
		return ErrCodeProviderError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ErrCodeProviderError
	}
	return ErrCodeNetworkError
}

var _ Transcriber = (*WhisperProvider)(nil)
