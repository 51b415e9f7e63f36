package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestOpenAISpeech_Name(t *testing.T) {
	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key"})
	if provider.Name() != "openai" {
		t.Errorf("Expected name 'openai', got '%s'", provider.Name())
	}
}

func TestOpenAISpeech_Voices(t *testing.T) {
	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key"})

	voices := make(map[string]bool)
	for _, v := range provider.GetSupportedVoices() {
		voices[v] = true
	}
	for _, want := range []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"} {
		if !voices[want] {
			t.Errorf("Expected voice '%s' not found", want)
		}
	}
	if v := provider.GetDefaultVoice(); v != "alloy" {
		t.Errorf("Expected default voice 'alloy', got '%s'", v)
	}
}

func TestOpenAISpeech_ValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       OpenAISpeechConfig
		wantError bool
	}{
		{name: "valid key", cfg: OpenAISpeechConfig{APIKey: "sk-test"}},
		{name: "wav format", cfg: OpenAISpeechConfig{APIKey: "sk-test", Format: "wav"}},
		{name: "empty key", cfg: OpenAISpeechConfig{}, wantError: true},
		{name: "mp3 format", cfg: OpenAISpeechConfig{APIKey: "sk-test", Format: "mp3"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")

			err := NewOpenAISpeech(tt.cfg).ValidateConfig()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestOpenAISpeech_Model(t *testing.T) {
	if m := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "k"}).Model(); m != "tts-1" {
		t.Errorf("Expected default model 'tts-1', got '%s'", m)
	}
	if m := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "k", Model: "tts-1-hd"}).Model(); m != "tts-1-hd" {
		t.Errorf("Expected model 'tts-1-hd', got '%s'", m)
	}
}

func TestOpenAISpeech_GetAudioFormat(t *testing.T) {
	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key"})

	tests := []struct {
		format      string
		expectedEnc string
	}{
		{"pcm", EncodingPCM},
		{"wav", EncodingWAV},
		{"unknown", EncodingPCM},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			format := provider.getAudioFormat(tt.format)
			if format.SampleRate != 24000 {
				t.Errorf("Expected sample rate 24000, got %d", format.SampleRate)
			}
			if format.Encoding != tt.expectedEnc {
				t.Errorf("Expected encoding '%s', got '%s'", tt.expectedEnc, format.Encoding)
			}
		})
	}
}

func TestOpenAISpeech_Synthesize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pcm)
	}))
	defer server.Close()

	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key", BaseURL: server.URL + "/v1/"})

	resp, err := provider.Synthesize(context.Background(), &SynthesizeRequest{Text: "hello", Speed: 1.25})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if got["input"] != "hello" || got["voice"] != "alloy" || got["response_format"] != "pcm" || got["model"] != "tts-1" {
		t.Errorf("Unexpected request payload: %+v", got)
	}
	if speed, _ := got["speed"].(float64); speed != 1.25 {
		t.Errorf("Expected speed 1.25, got %v", got["speed"])
	}

	data, rate, err := resp.PCM()
	if err != nil {
		t.Fatalf("PCM failed: %v", err)
	}
	if rate != 24000 {
		t.Errorf("Expected 24000 Hz, got %d", rate)
	}
	if string(data) != string(pcm) {
		t.Errorf("Expected %v, got %v", pcm, data)
	}
}

func TestOpenAISpeech_SynthesizeEmptyText(t *testing.T) {
	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key"})
	if _, err := provider.Synthesize(context.Background(), &SynthesizeRequest{}); err == nil {
		t.Error("Expected error for empty text, got nil")
	}
}

func TestOpenAISpeech_SynthesizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: "test-key", BaseURL: server.URL})

	if _, err := provider.Synthesize(context.Background(), &SynthesizeRequest{Text: "hello"}); err == nil {
		t.Error("Expected error for 401 response, got nil")
	}
}

// Integration test - only runs if OPENAI_API_KEY is set
func TestOpenAISpeech_Synthesize_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	provider := NewOpenAISpeech(OpenAISpeechConfig{APIKey: apiKey})
	resp, err := provider.Synthesize(context.Background(), &SynthesizeRequest{Text: "Hello, this is a test."})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(resp.AudioData) == 0 {
		t.Error("Expected audio data, got empty")
	}
	t.Logf("Synthesized %d bytes of audio at %d Hz", len(resp.AudioData), resp.AudioFormat.SampleRate)
}
