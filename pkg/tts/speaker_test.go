package tts

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	resp *SynthesizeResponse
	err  error
	last *SynthesizeRequest
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	f.last = req
	return f.resp, f.err
}
func (f *fakeProvider) GetSupportedVoices() []string { return nil }
func (f *fakeProvider) GetDefaultVoice() string      { return "" }
func (f *fakeProvider) ValidateConfig() error        { return nil }

type fakePlayer struct {
	pcm  []byte
	rate int
	err  error
}

func (f *fakePlayer) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	f.pcm = pcm
	f.rate = sampleRate
	return f.err
}

func TestSpeaker_Speak(t *testing.T) {
	provider := &fakeProvider{resp: &SynthesizeResponse{
		AudioData:   []byte{1, 0, 2, 0},
		AudioFormat: AudioFormat{SampleRate: 24000, Channels: 1, Encoding: EncodingPCM},
	}}
	player := &fakePlayer{}

	s := NewSpeaker(provider, player)
	s.Voice = "nova"
	if err := s.Speak(context.Background(), "hello there"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if provider.last.Text != "hello there" || provider.last.Voice != "nova" {
		t.Errorf("Unexpected request %+v", provider.last)
	}
	if player.rate != 24000 || len(player.pcm) != 4 {
		t.Errorf("Unexpected playback: %d bytes at %d Hz", len(player.pcm), player.rate)
	}
}

func TestSpeaker_DownmixesStereoPCM(t *testing.T) {
	provider := &fakeProvider{resp: &SynthesizeResponse{
		// one stereo frame: L=100, R=300
		AudioData:   []byte{100, 0, 44, 1},
		AudioFormat: AudioFormat{SampleRate: 16000, Channels: 2, Encoding: EncodingPCM},
	}}
	clip, err := NewSpeaker(provider, &fakePlayer{}).Render(context.Background(), "x")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(clip.PCM) != 2 || clip.PCM[0] != 200 || clip.PCM[1] != 0 {
		t.Errorf("Expected single sample 200, got %v", clip.PCM)
	}
}

func TestSpeaker_Errors(t *testing.T) {
	boom := errors.New("boom")

	s := NewSpeaker(&fakeProvider{err: boom}, &fakePlayer{})
	if err := s.Speak(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Errorf("Expected synthesis error, got %v", err)
	}
	if err := s.Speak(context.Background(), " "); err == nil {
		t.Error("Expected error for empty text")
	}

	s = NewSpeaker(&fakeProvider{resp: &SynthesizeResponse{
		AudioData:   []byte{0, 0},
		AudioFormat: AudioFormat{Encoding: "mp3"},
	}}, &fakePlayer{})
	if err := s.Speak(context.Background(), "hi"); err == nil {
		t.Error("Expected error for unsupported encoding")
	}

	s = NewSpeaker(&fakeProvider{resp: &SynthesizeResponse{
		AudioData:   []byte{0, 0},
		AudioFormat: AudioFormat{SampleRate: 16000, Encoding: EncodingPCM},
	}}, &fakePlayer{err: boom})
	if err := s.Speak(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Errorf("Expected playback error, got %v", err)
	}
}
