// Package status carries the assistant's user-facing status line to the
// terminal and to websocket clients.
package status

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Event types.
const (
	TypeStatus     = "status"
	TypeCapture    = "capture"
	TypeTranscript = "transcript"
	TypeReply      = "reply"
	TypeError      = "error"
)

// Event is one status update.
type Event struct {
	Type        string    `json:"type"`
	Text        string    `json:"text,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	UtteranceID string    `json:"utterance_id,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Time        time.Time `json:"time"`
}

// Sink receives status events. Publish must not block.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(ev Event) { f(ev) }

// Multi fans an event out to several sinks.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// Terminal prints events as single lines.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal creates a Terminal sink writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Publish implements Sink.
func (t *Terminal) Publish(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case TypeTranscript:
		fmt.Fprintf(t.w, "You said: %s\n", ev.Text)
	case TypeReply:
		fmt.Fprintf(t.w, "Assistant: %s\n", ev.Text)
	case TypeError:
		fmt.Fprintf(t.w, "Error (%s): %s\n", ev.Stage, ev.Text)
	default:
		fmt.Fprintf(t.w, "%s\n", ev.Text)
	}
}
