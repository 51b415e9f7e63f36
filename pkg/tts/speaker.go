package tts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// Player renders 16-bit mono PCM and blocks until it has played or ctx ends.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// Speaker turns text into sound: synthesize with a Provider, then play the
// decoded clip on a Player.
type Speaker struct {
	Provider Provider
	Player   Player
	Voice    string
	Language string
}

// NewSpeaker creates a Speaker.
func NewSpeaker(provider Provider, player Player) *Speaker {
	return &Speaker{Provider: provider, Player: player}
}

// Render synthesizes text and returns it as 16-bit mono PCM.
func (s *Speaker) Render(ctx context.Context, text string) (*audio.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to speak")
	}
	resp, err := s.Provider.Synthesize(ctx, &SynthesizeRequest{
		Text:     text,
		Voice:    s.Voice,
		Language: s.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("%s synthesis failed: %w", s.Provider.Name(), err)
	}
	pcm, rate, err := resp.PCM()
	if err != nil {
		return nil, fmt.Errorf("%s returned unusable audio: %w", s.Provider.Name(), err)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%s returned audio without a sample rate", s.Provider.Name())
	}
	return &audio.Clip{PCM: pcm, SampleRate: rate, Channels: 1}, nil
}

// Speak synthesizes text one sentence at a time and plays each as soon as
// it is ready, so long replies start playing without waiting for the whole
// text to be synthesized.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	sentences := SplitSentences(text, DefaultMinSentence)
	if len(sentences) == 0 {
		return fmt.Errorf("nothing to speak")
	}

	for _, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		clip, err := s.Render(ctx, sentence)
		if err != nil {
			return err
		}
		log.Printf("[TTS] Speaking %v of audio from %s", audio.Duration(len(clip.PCM), clip.SampleRate), s.Provider.Name())
		if err := s.Player.Play(ctx, clip.PCM, clip.SampleRate); err != nil {
			return err
		}
	}
	return nil
}
