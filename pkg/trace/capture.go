package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentCapture creates the span covering one endpointed capture.
// The caller ends it once the result is final.
func InstrumentCapture(ctx context.Context, sampleRate, frameSamples int) (context.Context, trace.Span) {
	return StartSpan(ctx, "capture",
		trace.WithAttributes(
			attribute.Int(AttrAudioSampleRate, sampleRate),
			attribute.Int(AttrCaptureFrameSamples, frameSamples),
		),
	)
}

// InstrumentDeviceOpen creates a span for opening an audio device.
func InstrumentDeviceOpen(ctx context.Context, kind, name string, sampleRate int) (context.Context, trace.Span) {
	return StartSpan(ctx, "device.open",
		trace.WithAttributes(
			attribute.String(AttrDeviceKind, kind),
			attribute.String(AttrDeviceName, name),
			attribute.Int(AttrAudioSampleRate, sampleRate),
		),
	)
}

// InstrumentPlayback creates a span for playing a clip on the output device.
func InstrumentPlayback(ctx context.Context, sampleRate, dataSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, "device.playback",
		trace.WithAttributes(AudioAttrs(sampleRate, 1, dataSize)...),
	)
}
