//go:build !whispercpp

package asr

import "context"

// NativeWhisper is a stub implementation when built without the 'whispercpp' build tag.
type NativeWhisper struct{}

// NewNativeWhisper returns an error indicating that whisper.cpp support is not built in.
func NewNativeWhisper(modelPath, language string) (*NativeWhisper, error) {
	return nil, &Error{
		Code:    ErrCodeInvalidConfig,
		Message: "whisper.cpp support is not enabled. Rebuild with '-tags whispercpp' and ensure libwhisper is installed",
	}
}

// Name returns the provider name.
func (n *NativeWhisper) Name() string {
	return "whisper-cpp"
}

// Transcribe returns an error for stub implementation.
func (n *NativeWhisper) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (string, error) {
	return "", &Error{Code: ErrCodeInvalidConfig, Message: "whisper.cpp support is not enabled"}
}

// Close is a no-op for stub implementation.
func (n *NativeWhisper) Close() error {
	return nil
}
