package vad

import "fmt"

// SileroConfig holds configuration for creating a Silero scorer.
type SileroConfig struct {
	// The path to the ONNX Silero VAD model file to load.
	ModelPath string
	// The sampling rate of the input audio samples. Supported values are 8000 and 16000.
	SampleRate int
}

// IsValid validates the scorer configuration.
func (c SileroConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}

	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate: valid values are 8000 and 16000")
	}

	return nil
}

// WindowSamples returns the frame length the model expects at the configured rate:
// 512 samples (32ms) at 16kHz and 256 samples at 8kHz.
func (c SileroConfig) WindowSamples() int {
	if c.SampleRate == 8000 {
		return 256
	}
	return 512
}
