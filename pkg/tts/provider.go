// Package tts speaks replies: providers synthesize text to PCM and a
// Speaker plays the result on an output device.
package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// Audio encodings a provider may return.
const (
	EncodingPCM = "pcm_s16le"
	EncodingWAV = "wav"
)

// AudioFormat defines the audio format configuration
type AudioFormat struct {
	SampleRate int    // Sample rate in Hz (e.g., 24000, 16000)
	Channels   int    // Number of audio channels (1 for mono, 2 for stereo)
	Encoding   string // Audio encoding format (e.g., "pcm_s16le", "wav")
}

// SynthesizeRequest represents a request to synthesize speech
type SynthesizeRequest struct {
	Text     string  // Text to synthesize
	Voice    string  // Voice ID or name
	Language string  // Language code (e.g., "en")
	Speed    float64 // Speaking rate multiplier, 0 means provider default
}

// SynthesizeResponse represents the response from speech synthesis
type SynthesizeResponse struct {
	AudioData   []byte      // Raw audio data
	AudioFormat AudioFormat // Format of the audio data
}

// PCM returns the response as 16-bit mono PCM with its sample rate,
// decoding and downmixing WAV payloads.
func (r *SynthesizeResponse) PCM() ([]byte, int, error) {
	switch r.AudioFormat.Encoding {
	case EncodingPCM, "":
		if r.AudioFormat.Channels > 1 {
			clip := &audio.Clip{PCM: r.AudioData, SampleRate: r.AudioFormat.SampleRate, Channels: r.AudioFormat.Channels}
			return clip.Mono().PCM, r.AudioFormat.SampleRate, nil
		}
		return r.AudioData, r.AudioFormat.SampleRate, nil
	case EncodingWAV:
		clip, err := audio.DecodeWAV(bytes.NewReader(r.AudioData))
		if err != nil {
			return nil, 0, err
		}
		mono := clip.Mono()
		return mono.PCM, mono.SampleRate, nil
	default:
		return nil, 0, fmt.Errorf("unsupported audio encoding %q", r.AudioFormat.Encoding)
	}
}

// Provider defines the interface that all TTS services must implement
type Provider interface {
	// Name returns the name of the TTS provider (e.g., "openai", "coqui")
	Name() string

	// Synthesize converts text to speech
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// GetSupportedVoices returns a list of available voices for this provider
	GetSupportedVoices() []string

	// GetDefaultVoice returns the default voice for this provider
	GetDefaultVoice() string

	// ValidateConfig validates the provider's configuration
	// Returns an error if credentials or required settings are missing
	ValidateConfig() error
}
