package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/realtime-ai/talk-assist/pkg/endpoint"
	"github.com/realtime-ai/talk-assist/pkg/metrics"
	"github.com/realtime-ai/talk-assist/pkg/status"
	"github.com/realtime-ai/talk-assist/pkg/trace"
)

type reqKind int

const (
	reqTranscribe reqKind = iota
	reqRespond
	reqPlayback
	reqSave
	reqSay
)

type request struct {
	kind  reqKind
	path  string
	text  string
	ctx   context.Context
	reply chan response
}

type response struct {
	text string
	err  error
}

// consumer owns the last utterance and its transcription. Only the
// goroutine running run touches them.
type consumer struct {
	a        *Assistant
	last     *endpoint.Utterance
	lastText string
}

func newConsumer(a *Assistant) *consumer {
	return &consumer{a: a}
}

func (c *consumer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.a.results:
			c.handleResult(ctx, r)
		case req := <-c.a.requests:
			reqCtx, cancel := context.WithCancel(req.ctx)
			stop := context.AfterFunc(ctx, cancel)
			text, err := c.handle(reqCtx, req)
			stop()
			cancel()
			req.reply <- response{text: text, err: err}
		}
	}
}

func (c *consumer) handle(ctx context.Context, req request) (string, error) {
	switch req.kind {
	case reqTranscribe:
		return c.transcribe(ctx)
	case reqRespond:
		return c.respond(ctx)
	case reqPlayback:
		return "", c.playback(ctx)
	case reqSave:
		return "", c.save(req.path)
	case reqSay:
		return "", c.say(ctx, req.text)
	default:
		return "", fmt.Errorf("assistant: unknown request %d", req.kind)
	}
}

func (c *consumer) handleResult(ctx context.Context, r *endpoint.Result) {
	ev := status.Event{Type: status.TypeCapture, Outcome: r.Outcome.String()}
	if r.Utterance != nil {
		ev.UtteranceID = r.Utterance.ID
	}

	switch r.Outcome {
	case endpoint.Speech:
		ev.Text = fmt.Sprintf("Speech captured (%.1fs)", r.Utterance.Duration().Seconds())
	case endpoint.NoSpeech:
		ev.Text = "No speech detected"
	case endpoint.TooShort:
		ev.Text = "Speech too short, try again"
	case endpoint.Timeout:
		ev.Text = "Capture timed out"
	case endpoint.Cancelled:
		ev.Text = "Capture cancelled"
	case endpoint.DeviceError:
		ev.Text = fmt.Sprintf("Microphone error: %v", r.Err)
	case endpoint.ScorerError:
		ev.Text = fmt.Sprintf("Voice detection failed: %v", r.Err)
	}
	c.a.publish(ev)

	if !r.HasAudio() || r.Outcome == endpoint.TooShort {
		return
	}

	// A new utterance invalidates the previous transcription.
	c.last = r.Utterance
	c.lastText = ""

	if c.a.cfg.RecordingPath != nil {
		if path := c.a.cfg.RecordingPath(c.last.ID); path != "" {
			if err := c.save(path); err != nil {
				log.Printf("[Assistant] Failed to save recording: %v", err)
			}
		}
	}

	if c.a.cfg.AutoTranscribe && (r.Outcome == endpoint.Speech || r.Outcome == endpoint.Timeout) {
		if _, err := c.transcribe(ctx); err != nil {
			log.Printf("[Assistant] Transcription flow failed: %v", err)
		}
	}
}

func (c *consumer) transcribe(ctx context.Context) (string, error) {
	if c.last == nil {
		c.say(ctx, NoAudioMessage)
		return "", ErrNoUtterance
	}
	if c.a.cfg.Transcriber == nil {
		return "", c.fail(metrics.StageTranscribe, ErrUnavailable)
	}

	c.status("Transcribing...")
	start := time.Now()
	text, err := c.a.cfg.Transcriber.Transcribe(ctx, c.last.Samples(), c.last.SampleRate, c.a.cfg.Language)
	metrics.ObserveStage(metrics.StageTranscribe, start, err)
	if err != nil {
		return "", c.fail(metrics.StageTranscribe, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.status("Didn't catch that")
		return "", nil
	}
	c.lastText = text
	c.a.publish(status.Event{Type: status.TypeTranscript, Text: text, UtteranceID: c.last.ID})

	_, err = c.respond(ctx)
	return text, err
}

func (c *consumer) respond(ctx context.Context) (string, error) {
	if c.lastText == "" {
		return "", ErrNoTranscript
	}

	reply, err := c.answer(ctx, c.lastText)
	if err != nil {
		return "", err
	}
	c.a.publish(status.Event{Type: status.TypeReply, Text: reply})

	if c.a.cfg.Speaker != nil {
		c.status("Replying...")
		start := time.Now()
		err := c.a.cfg.Speaker.Speak(ctx, reply)
		metrics.ObserveStage(metrics.StageSpeak, start, err)
		if err != nil {
			return reply, c.fail(metrics.StageSpeak, err)
		}
	}
	c.status("Ready")
	return reply, nil
}

// answer prefers a canned command reply and falls back to the responder.
func (c *consumer) answer(ctx context.Context, text string) (string, error) {
	if c.a.cfg.Classifier != nil {
		_, span := trace.InstrumentClassify(ctx, text)
		start := time.Now()
		reply, ok := c.a.cfg.Classifier.Classify(ctx, text)
		metrics.ObserveStage(metrics.StageClassify, start, nil)
		span.End()
		if ok {
			return reply, nil
		}
	}

	if c.a.cfg.Responder == nil {
		return "", c.fail(metrics.StageRespond, ErrUnavailable)
	}
	c.status("Thinking...")
	start := time.Now()
	reply, err := c.a.cfg.Responder.Respond(ctx, text)
	metrics.ObserveStage(metrics.StageRespond, start, err)
	if err != nil {
		return "", c.fail(metrics.StageRespond, err)
	}
	return reply, nil
}

func (c *consumer) playback(ctx context.Context) error {
	if c.last == nil {
		c.say(ctx, NoAudioMessage)
		return ErrNoUtterance
	}
	if c.a.cfg.Player == nil {
		return c.fail(metrics.StagePlayback, ErrUnavailable)
	}

	c.status("Playing back...")
	start := time.Now()
	err := c.a.cfg.Player.Play(ctx, c.last.PCM, c.last.SampleRate)
	metrics.ObserveStage(metrics.StagePlayback, start, err)
	if err != nil {
		return c.fail(metrics.StagePlayback, err)
	}
	c.status("Ready")
	return nil
}

func (c *consumer) save(path string) error {
	if c.last == nil {
		return ErrNoUtterance
	}
	if path == "" {
		return fmt.Errorf("assistant: empty path")
	}

	start := time.Now()
	err := c.last.Save(path)
	metrics.ObserveStage(metrics.StageSave, start, err)
	if err != nil {
		return c.fail(metrics.StageSave, err)
	}
	c.status("Saved " + path)
	return nil
}

func (c *consumer) say(ctx context.Context, text string) error {
	c.status(text)
	if c.a.cfg.Speaker == nil {
		return nil
	}
	start := time.Now()
	err := c.a.cfg.Speaker.Speak(ctx, text)
	metrics.ObserveStage(metrics.StageSpeak, start, err)
	if err != nil {
		return c.fail(metrics.StageSpeak, err)
	}
	return nil
}

// fail reports a downstream error as status text. Capture state is untouched.
func (c *consumer) fail(stage string, err error) error {
	log.Printf("[Assistant] %s failed: %v", stage, err)
	c.a.publish(status.Event{Type: status.TypeError, Stage: stage, Text: err.Error()})
	return fmt.Errorf("%s: %w", stage, err)
}

func (c *consumer) status(text string) {
	c.a.publish(status.Event{Type: status.TypeStatus, Text: text})
}
