//go:build !vad

package vad

import "fmt"

// Silero is a stub implementation when built without the 'vad' build tag.
type Silero struct{}

// InitRuntime returns an error for stub implementation.
func InitRuntime(libraryPath string) error {
	return fmt.Errorf("VAD support is not enabled. Rebuild with '-tags vad' and ensure ONNX Runtime is installed")
}

// DestroyRuntime is a no-op for stub implementation.
func DestroyRuntime() error {
	return nil
}

// NewSilero returns an error indicating that Silero support is not built in.
func NewSilero(cfg SileroConfig) (*Silero, error) {
	return nil, fmt.Errorf("VAD support is not enabled. Rebuild with '-tags vad' and ensure ONNX Runtime is installed")
}

// Score returns an error for stub implementation.
func (s *Silero) Score(frame []byte, sampleRate int) (float32, error) {
	return 0, fmt.Errorf("VAD support is not enabled")
}

// Reset returns an error for stub implementation.
func (s *Silero) Reset() error {
	return fmt.Errorf("VAD support is not enabled")
}

// Close is a no-op for stub implementation.
func (s *Silero) Close() error {
	return nil
}
