package llm

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/realtime-ai/talk-assist/pkg/trace"
)

// ChatConfig holds configuration for the OpenAI chat responder
type ChatConfig struct {
	APIKey       string // OpenAI API key
	BaseURL      string // Overrides OPENAI_BASE_URL
	Model        string // Model name (e.g., "gpt-4o-mini", "gpt-4o")
	SystemPrompt string // System prompt for the assistant
	MaxTokens    int    // Maximum tokens in response (0 = default)
	MaxHistory   int    // Maximum number of history messages to retain
}

// OpenAIChat answers prompts with the OpenAI Chat Completion API and keeps
// a short conversation history.
type OpenAIChat struct {
	config  ChatConfig
	client  openai.Client
	history []openai.ChatCompletionMessageParamUnion
	mu      sync.Mutex
}

// NewOpenAIChat creates a chat responder.
func NewOpenAIChat(config ChatConfig) (*OpenAIChat, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = "You are a helpful voice assistant. Answer in one or two short spoken sentences."
	}
	if config.MaxHistory == 0 {
		config.MaxHistory = 10
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIChat{
		config: config,
		client: openai.NewClient(opts...),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIChat) Name() string {
	return "openai"
}

// Respond sends prompt with the conversation history and records the exchange.
func (c *OpenAIChat) Respond(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	ctx, span := trace.InstrumentLLMRequest(ctx, c.Name(), c.config.Model)
	defer span.End()

	params := openai.ChatCompletionNewParams{
		Messages: c.buildMessages(prompt),
		Model:    shared.ChatModel(c.config.Model),
	}
	if c.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.config.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		trace.RecordError(span, err)
		return "", fmt.Errorf("completion error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.addToHistory(openai.UserMessage(prompt), openai.AssistantMessage(reply))

	log.Printf("[OpenAIChat] Assistant: %s", truncateForLog(reply, 100))
	return reply, nil
}

// ClearHistory clears the conversation history
func (c *OpenAIChat) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// HistoryLength returns the current number of messages in history
func (c *OpenAIChat) HistoryLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

func (c *OpenAIChat) buildMessages(prompt string) []openai.ChatCompletionMessageParamUnion {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(c.history)+2)
	messages = append(messages, openai.SystemMessage(c.config.SystemPrompt))
	messages = append(messages, c.history...)
	messages = append(messages, openai.UserMessage(prompt))
	return messages
}

// addToHistory appends a user/assistant pair, dropping the oldest pairs
// beyond MaxHistory.
func (c *OpenAIChat) addToHistory(msgs ...openai.ChatCompletionMessageParamUnion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, msgs...)
	if c.config.MaxHistory > 0 && len(c.history) > c.config.MaxHistory {
		excess := len(c.history) - c.config.MaxHistory
		if excess%2 != 0 {
			excess++
		}
		c.history = c.history[excess:]
	}
}

var _ Responder = (*OpenAIChat)(nil)
