package endpoint

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/metrics"
	"github.com/realtime-ai/talk-assist/pkg/trace"
)

// FrameSource delivers fixed-size PCM frames in arrival order.
//
// ReadFrame blocks until a frame is available. It returns an error matching
// audio.ErrOverflow when frames were dropped (recoverable; an
// *audio.OverflowError says how many), io.EOF when a finite source is
// exhausted, and any other error when the device is lost.
type FrameSource interface {
	ReadFrame(ctx context.Context) ([]byte, error)
}

// Capture drives ep from src on the calling goroutine until the capture is
// finished, and returns the result.
//
// The configured Timeout is also enforced on the wall clock so a stalled
// device cannot hang the capture. Cancelling ctx finalizes the capture as
// Cancelled with the audio accumulated so far.
func Capture(ctx context.Context, src FrameSource, ep *Endpointer) *Result {
	cfg := ep.Config()
	ctx, span := trace.InstrumentCapture(ctx, cfg.SampleRate, cfg.FrameSamples)
	defer span.End()

	readCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	dropped := 0
	for ep.State() != Finished {
		if readCtx.Err() != nil {
			stop(ctx, ep)
			break
		}

		frame, err := src.ReadFrame(readCtx)
		if err != nil {
			switch {
			case readCtx.Err() != nil:
				stop(ctx, ep)
			case errors.Is(err, audio.ErrOverflow):
				if dropped == 0 {
					log.Print(trace.LogWithTrace(ctx, "[Capture] Input overflow, frames dropped"))
				}
				n := audio.OverflowFrames(err)
				dropped += n
				metrics.OverflowDrops.Add(float64(n))
			case errors.Is(err, io.EOF):
				ep.Flush()
			default:
				ep.Fail(err)
			}
			continue
		}

		prev := ep.voiced
		ep.Process(frame)
		metrics.FramesProcessed.Inc()
		if ep.voiced > prev {
			metrics.VoicedFrames.Inc()
		}
	}

	r := ep.Result()
	r.FramesDropped = dropped
	record(r)

	frames, voiced, leadIn, ms := 0, 0, 0, int64(0)
	if u := r.Utterance; u != nil {
		frames, voiced, leadIn, ms = u.Frames, u.VoicedFrames, u.LeadInFrames, u.Duration().Milliseconds()
	}
	span.SetAttributes(trace.CaptureAttrs(r.Outcome.String(), frames, voiced, leadIn, dropped, ms)...)
	trace.RecordError(span, r.Err)
	return r
}

// stop finalizes after the read context ended: a cancelled parent is the
// caller's cancel, anything else is the wall-clock timeout.
func stop(parent context.Context, ep *Endpointer) {
	if parent.Err() != nil {
		ep.Cancel()
		return
	}
	ep.Expire()
}

func record(r *Result) {
	metrics.CapturesTotal.WithLabelValues(r.Outcome.String()).Inc()
	if r.Utterance != nil {
		metrics.UtteranceDuration.Observe(r.Utterance.Duration().Seconds())
	}
}
