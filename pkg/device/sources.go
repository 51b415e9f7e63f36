package device

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/realtime-ai/talk-assist/pkg/audio"
)

// SliceSource delivers frames cut from an in-memory PCM buffer. A trailing
// partial frame is padded with silence. When Pace is set, each frame is
// released one frame-length after the previous one, like a live device.
type SliceSource struct {
	frames [][]byte
	next   int
	pace   time.Duration
	last   time.Time
}

// NewSliceSource frames 16-bit mono pcm into frameSamples-sample frames.
func NewSliceSource(pcm []byte, frameSamples int) *SliceSource {
	frameBytes := audio.FrameBytes(frameSamples)
	if frameBytes <= 0 {
		return &SliceSource{}
	}

	framer := audio.NewFramer(frameBytes)
	frames := framer.Write(pcm)
	if framer.Pending() > 0 {
		frames = append(frames, framer.Write(make([]byte, frameBytes-framer.Pending()))...)
	}
	return &SliceSource{frames: frames}
}

// WithPace makes the source deliver one frame per interval.
func (s *SliceSource) WithPace(interval time.Duration) *SliceSource {
	s.pace = interval
	return s
}

// Len returns the total number of frames.
func (s *SliceSource) Len() int {
	return len(s.frames)
}

// ReadFrame implements endpoint.FrameSource. It returns io.EOF after the
// last frame.
func (s *SliceSource) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}

	if s.pace > 0 && !s.last.IsZero() {
		wait := s.pace - time.Since(s.last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}
	}
	s.last = time.Now()

	f := s.frames[s.next]
	s.next++
	return f, nil
}

// FileSource delivers frames from a WAV file. Multi-channel files are
// downmixed to mono; the file's sample rate is reported by SampleRate and
// is never resampled.
type FileSource struct {
	*SliceSource
	sampleRate int
	path       string
}

// OpenFile decodes the WAV file at path into a frame source.
func OpenFile(path string, frameSamples int) (*FileSource, error) {
	clip, err := audio.ReadWAVFile(path)
	if err != nil {
		return nil, err
	}
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: invalid sample rate %d", path, clip.SampleRate)
	}
	mono := clip.Mono()

	return &FileSource{
		SliceSource: NewSliceSource(mono.PCM, frameSamples),
		sampleRate:  mono.SampleRate,
		path:        path,
	}, nil
}

// SampleRate returns the file's sample rate.
func (f *FileSource) SampleRate() int {
	return f.sampleRate
}

// Path returns the file path.
func (f *FileSource) Path() string {
	return f.path
}
