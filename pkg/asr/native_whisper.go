//go:build whispercpp

package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/realtime-ai/talk-assist/pkg/trace"
)

// NativeWhisper runs a local whisper.cpp model. The model is shared; each
// call gets its own inference context.
type NativeWhisper struct {
	model    whisperlib.Model
	language string
	mu       sync.Mutex
}

// NewNativeWhisper loads the ggml model at modelPath. language is used
// when Transcribe is called without a hint; empty means auto-detect.
func NewNativeWhisper(modelPath, language string) (*NativeWhisper, error) {
	if modelPath == "" {
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: "whisper model path is required"}
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("failed to load model %q", modelPath), Err: err}
	}
	log.Printf("[Whisper.cpp] Model loaded from %s", modelPath)
	return &NativeWhisper{model: model, language: language}, nil
}

// Name returns the provider name.
func (n *NativeWhisper) Name() string {
	return "whisper-cpp"
}

// Transcribe runs inference on samples, which must be 16kHz.
func (n *NativeWhisper) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (string, error) {
	if err := validateSamples(samples, sampleRate); err != nil {
		return "", err
	}
	if sampleRate != whisperlib.SampleRate {
		return "", &Error{Code: ErrCodeInvalidAudio, Message: fmt.Sprintf("whisper.cpp needs %d Hz audio, got %d", whisperlib.SampleRate, sampleRate)}
	}
	if language == "" {
		language = n.language
	}

	_, span := trace.InstrumentSTTRequest(ctx, n.Name(), language, len(samples)*2)
	defer span.End()

	// whisper.cpp inference saturates the CPU; run one at a time.
	n.mu.Lock()
	defer n.mu.Unlock()

	wctx, err := n.model.NewContext()
	if err != nil {
		trace.RecordError(span, err)
		return "", &Error{Code: ErrCodeProviderError, Message: "failed to create whisper context", Err: err}
	}
	if language != "" {
		if err := wctx.SetLanguage(language); err != nil {
			log.Printf("[Whisper.cpp] Failed to set language %q, using auto: %v", language, err)
		}
	}

	keepGoing := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, keepGoing, nil, nil); err != nil {
		trace.RecordError(span, err)
		return "", &Error{Code: ErrCodeProviderError, Message: "whisper inference failed", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &Error{Code: ErrCodeProviderError, Message: "failed to read segment", Err: err}
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the model.
func (n *NativeWhisper) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

var _ Transcriber = (*NativeWhisper)(nil)
