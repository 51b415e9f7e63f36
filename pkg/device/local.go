// Package device connects the endpointer to real and synthetic audio I/O:
// a malgo-backed microphone and speaker, and file or in-memory frame sources.
package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	"github.com/realtime-ai/talk-assist/pkg/trace"
)

var (
	// ErrDeviceBusy is returned when a capture stream is already open on the device.
	ErrDeviceBusy = errors.New("device: capture already in progress")
	// ErrDeviceLost is returned by ReadFrame when the capture device stopped
	// without being closed.
	ErrDeviceLost = errors.New("device: capture device stopped")
	// ErrClosed is returned after the stream or device has been closed.
	ErrClosed = errors.New("device: closed")
)

const (
	// DefaultPeriodMs is the device callback period.
	DefaultPeriodMs = 20
	// DefaultQueueFrames is how many frames may wait for the reader before
	// the stream starts dropping.
	DefaultQueueFrames = 50
	// FadeOutMs is applied to playback cut short by cancellation.
	FadeOutMs = 30
)

// Info describes an audio device.
type Info struct {
	Index     int
	Name      string
	IsDefault bool
}

// Local is the machine's default audio backend. At most one capture stream
// may be open at a time.
type Local struct {
	audioContext *malgo.AllocatedContext

	mu      sync.Mutex
	capture *CaptureStream
	closed  bool
}

// NewLocal initializes the audio backend.
func NewLocal() (*Local, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("[Device] %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Local{audioContext: ctx}, nil
}

// CaptureDevices lists the available input devices.
func (l *Local) CaptureDevices() ([]Info, error) {
	return l.devices(malgo.Capture)
}

// PlaybackDevices lists the available output devices.
func (l *Local) PlaybackDevices() ([]Info, error) {
	return l.devices(malgo.Playback)
}

func (l *Local) devices(kind malgo.DeviceType) ([]Info, error) {
	infos, err := l.audioContext.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	out := make([]Info, 0, len(infos))
	for i, info := range infos {
		out = append(out, Info{
			Index:     i,
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}
	return out, nil
}

// CaptureConfig configures a capture stream.
type CaptureConfig struct {
	SampleRate   int
	FrameSamples int
	// DeviceIndex selects an input from CaptureDevices; -1 uses the default.
	DeviceIndex int
	PeriodMs    int
	QueueFrames int
}

// OpenCapture starts the microphone and returns a stream of exact frames.
// The stream must be closed before another can be opened.
func (l *Local) OpenCapture(ctx context.Context, cfg CaptureConfig) (*CaptureStream, error) {
	if cfg.SampleRate <= 0 || cfg.FrameSamples <= 0 {
		return nil, fmt.Errorf("invalid capture config: rate %d, frame %d", cfg.SampleRate, cfg.FrameSamples)
	}
	if cfg.PeriodMs <= 0 {
		cfg.PeriodMs = DefaultPeriodMs
	}
	if cfg.QueueFrames <= 0 {
		cfg.QueueFrames = DefaultQueueFrames
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.capture != nil {
		return nil, ErrDeviceBusy
	}

	_, span := trace.InstrumentDeviceOpen(ctx, "capture", fmt.Sprintf("%d", cfg.DeviceIndex), cfg.SampleRate)
	defer span.End()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.PeriodSizeInMilliseconds = uint32(cfg.PeriodMs)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.DeviceIndex >= 0 {
		infos, err := l.audioContext.Devices(malgo.Capture)
		if err != nil {
			trace.RecordError(span, err)
			return nil, fmt.Errorf("failed to list capture devices: %w", err)
		}
		if cfg.DeviceIndex >= len(infos) {
			return nil, fmt.Errorf("capture device %d not found (%d available)", cfg.DeviceIndex, len(infos))
		}
		deviceConfig.Capture.DeviceID = infos[cfg.DeviceIndex].ID.Pointer()
	}

	stream := newCaptureStream(audio.FrameBytes(cfg.FrameSamples), cfg.QueueFrames)
	stream.release = l.release

	device, err := malgo.InitDevice(l.audioContext.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, framecount uint32) {
			stream.push(inputSamples)
		},
		Stop: stream.stopped,
	})
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	stream.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		trace.RecordError(span, err)
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	l.capture = stream
	log.Printf("[Device] Capture started: %d Hz, %d-sample frames", cfg.SampleRate, cfg.FrameSamples)
	return stream, nil
}

func (l *Local) release(s *CaptureStream) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capture == s {
		l.capture = nil
	}
}

// Play renders a 16-bit mono clip on the default output device, opened at
// the clip's sample rate, and blocks until the clip has played or ctx ends.
func (l *Local) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid playback sample rate: %d", sampleRate)
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ctx, span := trace.InstrumentPlayback(ctx, sampleRate, len(pcm))
	defer span.End()

	buf := audio.NewPlaybackBuffer(sampleRate)
	buf.Write(pcm)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.PeriodSizeInMilliseconds = DefaultPeriodMs
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(l.audioContext.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, framecount uint32) {
			buf.Fill(outputSamples)
		},
	})
	if err != nil {
		trace.RecordError(span, err)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		trace.RecordError(span, err)
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	select {
	case <-buf.Done():
	case <-ctx.Done():
		buf.ClearWithFadeOut(FadeOutMs)
		select {
		case <-buf.Done():
		case <-time.After(time.Second):
		}
	}

	if err := device.Stop(); err != nil {
		log.Printf("[Device] Failed to stop playback device: %v", err)
	}
	return ctx.Err()
}

// Close stops any open capture stream and releases the audio backend.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	stream := l.capture
	l.mu.Unlock()

	if stream != nil {
		stream.Close()
	}

	if err := l.audioContext.Uninit(); err != nil {
		return fmt.Errorf("failed to uninit audio context: %w", err)
	}
	l.audioContext.Free()
	return nil
}
