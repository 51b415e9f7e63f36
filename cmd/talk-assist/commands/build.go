package commands

import (
	"fmt"
	"log"

	"github.com/realtime-ai/talk-assist/pkg/asr"
	"github.com/realtime-ai/talk-assist/pkg/config"
	"github.com/realtime-ai/talk-assist/pkg/endpoint"
	"github.com/realtime-ai/talk-assist/pkg/llm"
	"github.com/realtime-ai/talk-assist/pkg/metrics"
	"github.com/realtime-ai/talk-assist/pkg/tts"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

// newScorer builds the configured VAD scorer wrapped with latency metrics.
// The returned scorer must be released with vad.Close.
func newScorer(cfg *config.Config, ec endpoint.Config) (vad.Scorer, error) {
	var s vad.Scorer
	switch cfg.VAD.Kind {
	case config.VADEnergy:
		e, err := vad.NewEnergy(cfg.VAD.EnergyFloor, cfg.VAD.EnergyCeiling)
		if err != nil {
			return nil, err
		}
		s = e
	case config.VADLevel:
		s = vad.NewBool(vad.LevelGate(cfg.VAD.Level))
	case config.VADSilero:
		if err := vad.InitRuntime(cfg.VAD.LibraryPath); err != nil {
			return nil, err
		}
		silero, err := vad.NewSilero(vad.SileroConfig{ModelPath: cfg.VAD.ModelPath, SampleRate: ec.SampleRate})
		if err != nil {
			return nil, err
		}
		s = silero
	default:
		return nil, fmt.Errorf("unknown vad kind %q", cfg.VAD.Kind)
	}

	log.Printf("[CLI] VAD: %s, %d-sample frames at %d Hz", cfg.VAD.Kind, ec.FrameSamples, ec.SampleRate)
	return vad.NewTimed(s, ec.FrameDuration(), metrics.ObserveVAD), nil
}

func newTranscriber(cfg *config.Config) (asr.Transcriber, error) {
	switch cfg.STT.Provider {
	case config.STTOpenAI:
		return asr.NewWhisperProviderWithConfig(asr.WhisperConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.STT.Model,
		})
	case config.STTWhisperCpp:
		return asr.NewNativeWhisper(cfg.STT.ModelPath, cfg.STT.Language)
	case config.STTNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.STT.Provider)
	}
}

func newResponder(cfg *config.Config) (llm.Responder, error) {
	switch cfg.LLM.Provider {
	case config.LLMOllama:
		return llm.NewOllama(llm.OllamaConfig{
			Host:    cfg.LLM.Host,
			Model:   cfg.LLM.Model,
			System:  cfg.LLM.SystemPrompt,
			Timeout: cfg.LLM.Timeout,
		})
	case config.LLMOpenAI:
		return llm.NewOpenAIChat(llm.ChatConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.LLM.Model,
			SystemPrompt: cfg.LLM.SystemPrompt,
		})
	case config.LLMEcho:
		return llm.Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func newTTSProvider(cfg *config.Config) (tts.Provider, error) {
	switch cfg.TTS.Provider {
	case config.TTSCoqui:
		opts := []tts.CoquiOption{tts.WithCoquiLanguage(cfg.TTS.Language)}
		if cfg.TTS.Voice != "" {
			opts = append(opts, tts.WithCoquiSpeaker(cfg.TTS.Voice))
		}
		return tts.NewCoqui(cfg.TTS.URL, opts...), nil
	case config.TTSOpenAI:
		p := tts.NewOpenAISpeech(tts.OpenAISpeechConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.TTS.Model,
		})
		if err := p.ValidateConfig(); err != nil {
			return nil, err
		}
		return p, nil
	case config.TTSNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTS.Provider)
	}
}

func closeScorer(cfg *config.Config, s vad.Scorer) {
	if err := vad.Close(s); err != nil {
		log.Printf("[CLI] Failed to close scorer: %v", err)
	}
	if cfg.VAD.Kind == config.VADSilero {
		vad.DestroyRuntime()
	}
}
