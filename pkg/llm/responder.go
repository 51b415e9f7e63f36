// Package llm provides the general-purpose reply sources used when a
// transcription matches no canned command.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyPrompt is returned when there is nothing to respond to.
var ErrEmptyPrompt = errors.New("llm: empty prompt")

// Responder produces a spoken-length reply to a prompt.
type Responder interface {
	// Name returns the provider name (e.g., "ollama", "openai")
	Name() string
	Respond(ctx context.Context, prompt string) (string, error)
}

// Echo repeats the prompt back, so an unmatched phrase is still spoken.
type Echo struct{}

// Name returns the provider name.
func (Echo) Name() string {
	return "echo"
}

// Respond returns prompt unchanged.
func (Echo) Respond(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}

// truncateForLog truncates text for logging
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Responder = Echo{}
