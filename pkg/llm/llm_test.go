package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho(t *testing.T) {
	reply, err := Echo{}.Respond(context.Background(), "  tell me a joke ")
	require.NoError(t, err)
	assert.Equal(t, "tell me a joke", reply)

	_, err = Echo{}.Respond(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestOllamaRespond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOllamaModel, req["model"])
		assert.Equal(t, "what is go", req["prompt"])
		assert.Equal(t, false, req["stream"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"llama3.2:1b","response":" A programming language. ","done":true}`+"\n")
	}))
	defer server.Close()

	o, err := NewOllama(OllamaConfig{Host: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "ollama", o.Name())

	reply, err := o.Respond(context.Background(), "what is go")
	require.NoError(t, err)
	assert.Equal(t, "A programming language.", reply)
}

func TestOllamaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"model 'llama3.2:1b' not found"}`)
	}))
	defer server.Close()

	o, err := NewOllama(OllamaConfig{Host: server.URL})
	require.NoError(t, err)

	_, err = o.Respond(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOllamaTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	o, err := NewOllama(OllamaConfig{Host: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = o.Respond(context.Background(), "hello")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestOpenAIChatRespond(t *testing.T) {
	var messages int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string           `json:"model"`
			Messages []map[string]any `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		messages = len(req.Messages)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Sure thing. "}}]}`)
	}))
	defer server.Close()

	chat, err := NewOpenAIChat(ChatConfig{APIKey: "test", BaseURL: server.URL + "/v1/"})
	require.NoError(t, err)

	reply, err := chat.Respond(context.Background(), "can you help")
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", reply)
	assert.Equal(t, 2, messages, "system prompt plus user message")
	assert.Equal(t, 2, chat.HistoryLength())

	_, err = chat.Respond(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 4, messages, "history is sent with the next prompt")

	chat.ClearHistory()
	assert.Equal(t, 0, chat.HistoryLength())
}

func TestOpenAIChatHistoryLimit(t *testing.T) {
	chat, err := NewOpenAIChat(ChatConfig{APIKey: "test", MaxHistory: 4})
	require.NoError(t, err)

	msgs := chat.buildMessages("hi")
	chat.addToHistory(msgs[1], msgs[1])
	chat.addToHistory(msgs[1], msgs[1])
	chat.addToHistory(msgs[1], msgs[1])
	assert.Equal(t, 4, chat.HistoryLength())
}

func TestNewOpenAIChatRequiresKey(t *testing.T) {
	_, err := NewOpenAIChat(ChatConfig{})
	assert.Error(t, err)
}
