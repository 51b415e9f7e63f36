// Package asr turns captured utterances into text.
//
// A Transcriber takes normalized float32 samples in [-1, 1] at a given
// sample rate plus an optional language hint. Calls may take seconds and
// must run off the capture goroutine.
package asr

import (
	"context"
)

// Transcriber is the interface for speech-to-text backends.
type Transcriber interface {
	// Name returns the provider name (e.g., "openai-whisper", "whisper-cpp")
	Name() string

	// Transcribe returns the text spoken in samples. An empty language
	// lets the backend detect it.
	Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (string, error)
}

// Error types for ASR operations
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInvalidConfig
	ErrCodeInvalidAudio
	ErrCodeUnsupportedLanguage
	ErrCodeAuthenticationFailed
	ErrCodeQuotaExceeded
	ErrCodeNetworkError
	ErrCodeProviderError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidConfig:
		return "invalid_config"
	case ErrCodeInvalidAudio:
		return "invalid_audio"
	case ErrCodeUnsupportedLanguage:
		return "unsupported_language"
	case ErrCodeAuthenticationFailed:
		return "authentication_failed"
	case ErrCodeQuotaExceeded:
		return "quota_exceeded"
	case ErrCodeNetworkError:
		return "network_error"
	case ErrCodeProviderError:
		return "provider_error"
	default:
		return "unknown"
	}
}

// validateSamples rejects input no backend can transcribe.
func validateSamples(samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return &Error{Code: ErrCodeInvalidAudio, Message: "sample rate must be positive"}
	}
	if len(samples) == 0 {
		return &Error{Code: ErrCodeInvalidAudio, Message: "audio data is empty"}
	}
	return nil
}
