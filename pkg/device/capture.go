package device

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// CaptureStream delivers exact frames from a running capture device.
// It implements endpoint.FrameSource.
type CaptureStream struct {
	device  *malgo.Device
	framer  *audio.Framer
	frames  chan []byte
	release func(*CaptureStream)

	// unreported counts drops the reader has not been told about yet.
	unreported atomic.Int64
	dropped    atomic.Int64
	closing    atomic.Bool

	lost      chan struct{}
	lostOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func newCaptureStream(frameBytes, queue int) *CaptureStream {
	return &CaptureStream{
		framer: audio.NewFramer(frameBytes),
		frames: make(chan []byte, queue),
		lost:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// push runs on the audio thread. It never blocks: frames that do not fit in
// the queue are dropped and reported to the reader as one overflow per burst.
func (s *CaptureStream) push(samples []byte) {
	if s.closing.Load() {
		return
	}
	for _, f := range s.framer.Write(samples) {
		select {
		case s.frames <- f:
		default:
			s.dropped.Add(1)
			s.unreported.Add(1)
		}
	}
}

// stopped runs when the device stops, either on Close or because the
// backend lost it.
func (s *CaptureStream) stopped() {
	if s.closing.Load() {
		return
	}
	s.lostOnce.Do(func() {
		log.Printf("[Device] Capture device stopped unexpectedly")
		close(s.lost)
	})
}

// ReadFrame returns the next frame. After frames were dropped it returns
// one *audio.OverflowError carrying the number lost since the last read. It
// returns ErrDeviceLost if the device stopped, and ErrClosed after Close.
func (s *CaptureStream) ReadFrame(ctx context.Context) ([]byte, error) {
	if n := s.unreported.Swap(0); n > 0 {
		return nil, &audio.OverflowError{Frames: int(n)}
	}

	select {
	case f := <-s.frames:
		return f, nil
	default:
	}

	select {
	case f := <-s.frames:
		return f, nil
	case <-s.lost:
		return nil, ErrDeviceLost
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dropped returns the number of frames lost to overflow.
func (s *CaptureStream) Dropped() int {
	return int(s.dropped.Load())
}

// Close stops the device and frees the capture slot.
func (s *CaptureStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.closed)
		if s.device != nil {
			err = s.device.Stop()
			s.device.Uninit()
		}
		if s.release != nil {
			s.release(s)
		}
		log.Printf("[Device] Capture stopped (%d frames dropped)", s.Dropped())
	})
	return err
}
