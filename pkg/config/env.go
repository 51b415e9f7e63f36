package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOllamaHost    = "OLLAMA_HOST"
	EnvCoquiURL      = "COQUI_URL"

	EnvVAD        = "TALK_ASSIST_VAD"
	EnvSTT        = "TALK_ASSIST_STT"
	EnvLLM        = "TALK_ASSIST_LLM"
	EnvLLMModel   = "TALK_ASSIST_LLM_MODEL"
	EnvTTS        = "TALK_ASSIST_TTS"
	EnvDevice     = "TALK_ASSIST_DEVICE"
	EnvThreshold  = "TALK_ASSIST_THRESHOLD"
	EnvTimeout    = "TALK_ASSIST_TIMEOUT"
	EnvStatusAddr = "TALK_ASSIST_STATUS_ADDR"
	EnvRecordings = "TALK_ASSIST_RECORDINGS"
)

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", p, err)
		}
		log.Printf("[Config] Loaded environment from %s", p)
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvOpenAIAPIKey, &c.OpenAIAPIKey)
	str(EnvOpenAIBaseURL, &c.OpenAIBaseURL)
	str(EnvOllamaHost, &c.LLM.Host)
	str(EnvCoquiURL, &c.TTS.URL)
	str(EnvVAD, &c.VAD.Kind)
	str(EnvSTT, &c.STT.Provider)
	str(EnvLLM, &c.LLM.Provider)
	str(EnvLLMModel, &c.LLM.Model)
	str(EnvTTS, &c.TTS.Provider)
	str(EnvStatusAddr, &c.Status.Addr)
	str(EnvRecordings, &c.RecordingsDir)

	if v, ok := lookup(EnvDevice); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvDevice, err)
		}
		c.Audio.DeviceIndex = n
	}
	if v, ok := lookup(EnvThreshold); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvThreshold, err)
		}
		c.Endpoint.Threshold = float32(f)
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.Endpoint.Timeout = d
	}
	return nil
}
