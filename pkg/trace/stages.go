package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentSTTRequest creates a span for STT (Speech-to-Text) requests
func InstrumentSTTRequest(ctx context.Context, provider, language string, audioSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, "stt.request",
		trace.WithAttributes(
			attribute.String(AttrSTTProvider, provider),
			attribute.String(AttrSTTLanguage, language),
			attribute.Int(AttrAudioDataSize, audioSize),
		),
	)
}

// InstrumentClassify creates a span for command classification
func InstrumentClassify(ctx context.Context, text string) (context.Context, trace.Span) {
	return StartSpan(ctx, "command.classify",
		trace.WithAttributes(
			attribute.Int(AttrTextLength, len(text)),
		),
	)
}

// InstrumentLLMRequest creates a span for LLM requests
func InstrumentLLMRequest(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return StartSpan(ctx, "llm.request",
		trace.WithAttributes(
			LLMAttrs(provider, model)...,
		),
	)
}

// InstrumentTTSRequest creates a span for TTS (Text-to-Speech) requests
func InstrumentTTSRequest(ctx context.Context, provider, voice, text string) (context.Context, trace.Span) {
	return StartSpan(ctx, "tts.request",
		trace.WithAttributes(
			attribute.String(AttrTTSProvider, provider),
			attribute.String(AttrTTSVoice, voice),
			attribute.Int(AttrTextLength, len(text)),
		),
	)
}
