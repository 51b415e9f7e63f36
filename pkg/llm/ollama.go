package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/realtime-ai/talk-assist/pkg/trace"
)

const (
	// DefaultOllamaModel is a small model that answers quickly on a laptop.
	DefaultOllamaModel = "llama3.2:1b"
	// DefaultOllamaTimeout bounds one generation.
	DefaultOllamaTimeout = 10 * time.Second
)

// OllamaConfig configures the Ollama responder.
type OllamaConfig struct {
	// Host is the server URL. Empty uses OLLAMA_HOST or the local default.
	Host    string
	Model   string
	System  string
	Timeout time.Duration
}

// Ollama generates replies with a local Ollama server.
type Ollama struct {
	client *api.Client
	cfg    OllamaConfig
}

// NewOllama creates an Ollama responder.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}

	var client *api.Client
	if cfg.Host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
		}
		client = api.NewClient(u, &http.Client{Timeout: cfg.Timeout})
	}

	log.Printf("[Ollama] Using model %s", cfg.Model)
	return &Ollama{client: client, cfg: cfg}, nil
}

// Name returns the provider name.
func (o *Ollama) Name() string {
	return "ollama"
}

// Respond runs one non-streaming generation.
func (o *Ollama) Respond(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	ctx, span := trace.InstrumentLLMRequest(ctx, o.Name(), o.cfg.Model)
	defer span.End()

	stream := false
	req := &api.GenerateRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		System: o.cfg.System,
		Stream: &stream,
	}

	var b strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		trace.RecordError(span, err)
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	reply := strings.TrimSpace(b.String())
	log.Print(trace.LogWithTrace(ctx, "[Ollama] Reply: "+truncateForLog(reply, 100)))
	return reply, nil
}

var _ Responder = (*Ollama)(nil)
