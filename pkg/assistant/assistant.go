// Package assistant ties the capture loop to the downstream stages: one
// goroutine captures an utterance, another owns it and runs transcription,
// command matching, replies, playback and export on request.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/realtime-ai/talk-assist/pkg/asr"
	"github.com/realtime-ai/talk-assist/pkg/endpoint"
	"github.com/realtime-ai/talk-assist/pkg/llm"
	"github.com/realtime-ai/talk-assist/pkg/status"
	"github.com/realtime-ai/talk-assist/pkg/vad"
)

var (
	// ErrCaptureInProgress is returned by Listen while a capture is running.
	ErrCaptureInProgress = errors.New("assistant: capture already in progress")
	// ErrNoUtterance is returned when a request needs audio and none was captured.
	ErrNoUtterance = errors.New("assistant: no utterance captured")
	// ErrNoTranscript is returned by Respond before anything was transcribed.
	ErrNoTranscript = errors.New("assistant: nothing transcribed yet")
	// ErrNotRunning is returned when a request is made while Run is not active.
	ErrNotRunning = errors.New("assistant: not running")
	// ErrUnavailable is returned when the stage a request needs is not configured.
	ErrUnavailable = errors.New("assistant: stage not configured")
)

// Spoken notices.
const (
	NoAudioMessage = "No audio captured yet."
	GoodbyeMessage = "Goodbye!"
)

// OpenFunc opens the input for one capture. If the source implements
// io.Closer it is closed when the capture ends.
type OpenFunc func(ctx context.Context) (endpoint.FrameSource, error)

// Classifier maps text to a canned reply.
type Classifier interface {
	Classify(ctx context.Context, text string) (reply string, ok bool)
}

// Speaker says text out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Player renders 16-bit mono PCM.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// Server is a background service run next to the assistant, such as the
// status hub.
type Server interface {
	Serve(ctx context.Context) error
}

// Config wires the assistant. Endpoint, Scorer and Open are required;
// every downstream stage is optional.
type Config struct {
	Endpoint endpoint.Config
	Scorer   vad.Scorer
	Open     OpenFunc

	Transcriber asr.Transcriber
	Language    string
	Classifier  Classifier
	Responder   llm.Responder
	Speaker     Speaker
	Player      Player

	Status status.Sink
	// Servers run for the lifetime of Run.
	Servers []Server

	// RecordingPath returns where to save each captured utterance; "" skips it.
	RecordingPath func(id string) string
	// AutoTranscribe runs the Transcribe flow after every captured utterance.
	AutoTranscribe bool
}

// Assistant coordinates capture and the downstream stages.
type Assistant struct {
	cfg Config

	mu        sync.Mutex
	capturing bool
	cancel    context.CancelFunc
	captures  sync.WaitGroup

	results  chan *endpoint.Result
	requests chan request
	running  chan struct{}
}

// New creates an Assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("assistant: scorer is required")
	}
	if cfg.Open == nil {
		return nil, fmt.Errorf("assistant: input opener is required")
	}
	if err := cfg.Endpoint.Validate(); err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}
	if cfg.Status == nil {
		cfg.Status = status.SinkFunc(func(status.Event) {})
	}

	return &Assistant{
		cfg:      cfg,
		results:  make(chan *endpoint.Result, 1),
		requests: make(chan request),
	}, nil
}

// Run starts the consumer goroutine and the configured servers and blocks
// until ctx is done or one of them fails. An in-flight capture is cancelled
// on return.
func (a *Assistant) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running != nil {
		a.mu.Unlock()
		return fmt.Errorf("assistant: already running")
	}
	running := make(chan struct{})
	a.running = running
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		newConsumer(a).run(gctx)
		return nil
	})
	for _, srv := range a.cfg.Servers {
		srv := srv
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.Cancel()
		return nil
	})

	a.publish(status.Event{Type: status.TypeStatus, Text: "Ready"})
	err := g.Wait()

	a.mu.Lock()
	a.running = nil
	a.mu.Unlock()
	close(running)
	a.captures.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Listen starts one capture in the background. The result is handed to the
// consumer goroutine, which becomes its only owner.
func (a *Assistant) Listen(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running == nil {
		return ErrNotRunning
	}
	if a.capturing {
		return ErrCaptureInProgress
	}

	ep, err := endpoint.New(a.cfg.Endpoint, a.cfg.Scorer)
	if err != nil {
		return err
	}
	if err := vad.Reset(a.cfg.Scorer); err != nil {
		log.Printf("[Assistant] Failed to reset scorer: %v", err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	a.capturing = true
	a.cancel = cancel
	a.captures.Add(1)
	done := a.running

	go func() {
		defer a.captures.Done()
		defer cancel()

		r := a.capture(captureCtx, ep)

		a.mu.Lock()
		a.capturing = false
		a.cancel = nil
		a.mu.Unlock()

		select {
		case a.results <- r:
		case <-done:
			log.Printf("[Assistant] Dropping %s capture, assistant stopped", r.Outcome)
		}
	}()
	return nil
}

func (a *Assistant) capture(ctx context.Context, ep *endpoint.Endpointer) *endpoint.Result {
	a.publish(status.Event{Type: status.TypeStatus, Text: "Listening..."})

	src, err := a.cfg.Open(ctx)
	if err != nil {
		return ep.Fail(err)
	}
	if c, ok := src.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("[Assistant] Failed to close input: %v", err)
			}
		}()
	}

	ep.OnStateChange(func(s endpoint.State) {
		if s == endpoint.Speaking {
			a.publish(status.Event{Type: status.TypeStatus, Text: "Speaking..."})
		}
	})
	return endpoint.Capture(ctx, src, ep)
}

// Cancel stops the running capture, keeping the audio heard so far. It
// reports whether a capture was running.
func (a *Assistant) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel == nil {
		return false
	}
	a.cancel()
	return true
}

// Capturing reports whether a capture is running.
func (a *Assistant) Capturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capturing
}

// Transcribe transcribes the last utterance, shows the text, then answers
// it with a command reply or the responder and speaks the answer. It
// returns the transcription.
func (a *Assistant) Transcribe(ctx context.Context) (string, error) {
	return a.do(ctx, request{kind: reqTranscribe})
}

// Respond answers the last transcription again without re-transcribing.
// It returns the reply.
func (a *Assistant) Respond(ctx context.Context) (string, error) {
	return a.do(ctx, request{kind: reqRespond})
}

// Playback plays the last utterance.
func (a *Assistant) Playback(ctx context.Context) error {
	_, err := a.do(ctx, request{kind: reqPlayback})
	return err
}

// Save writes the last utterance to a WAV file at path.
func (a *Assistant) Save(ctx context.Context, path string) error {
	_, err := a.do(ctx, request{kind: reqSave, path: path})
	return err
}

// Say shows text as status and speaks it when a Speaker is configured.
// It queues behind any request in progress so it never talks over a reply.
func (a *Assistant) Say(ctx context.Context, text string) error {
	_, err := a.do(ctx, request{kind: reqSay, text: text})
	return err
}

func (a *Assistant) do(ctx context.Context, req request) (string, error) {
	a.mu.Lock()
	done := a.running
	a.mu.Unlock()
	if done == nil {
		return "", ErrNotRunning
	}

	req.ctx = ctx
	req.reply = make(chan response, 1)

	select {
	case a.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
		return "", ErrNotRunning
	}

	select {
	case resp := <-req.reply:
		return resp.text, resp.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *Assistant) publish(ev status.Event) {
	a.cfg.Status.Publish(ev)
}
