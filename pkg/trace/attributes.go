package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys used throughout the application
const (
	// Capture attributes
	AttrCaptureOutcome      = "capture.outcome"
	AttrCaptureFrames       = "capture.frames"
	AttrCaptureVoiced       = "capture.voiced_frames"
	AttrCaptureLeadIn       = "capture.lead_in_frames"
	AttrCaptureDropped      = "capture.dropped_frames"
	AttrCaptureDuration     = "capture.utterance_ms"
	AttrCaptureUtteranceID  = "capture.utterance_id"
	AttrCaptureFrameSamples = "capture.frame_samples"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioChannels   = "audio.channels"
	AttrAudioDataSize   = "audio.data_size"

	// Device attributes
	AttrDeviceKind = "device.kind"
	AttrDeviceName = "device.name"

	// Downstream attributes
	AttrSTTProvider  = "stt.provider"
	AttrSTTLanguage  = "stt.language"
	AttrLLMProvider  = "llm.provider"
	AttrLLMModel     = "llm.model"
	AttrTTSProvider  = "tts.provider"
	AttrTTSVoice     = "tts.voice"
	AttrCommandMatch = "command.matched"
	AttrTextLength   = "text.length"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// AudioAttrs creates attributes for audio data
func AudioAttrs(sampleRate, channels, dataSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioChannels, channels),
		attribute.Int(AttrAudioDataSize, dataSize),
	}
}

// CaptureAttrs describes a finalized capture.
func CaptureAttrs(outcome string, frames, voiced, leadIn, dropped int, utteranceMs int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCaptureOutcome, outcome),
		attribute.Int(AttrCaptureFrames, frames),
		attribute.Int(AttrCaptureVoiced, voiced),
		attribute.Int(AttrCaptureLeadIn, leadIn),
		attribute.Int(AttrCaptureDropped, dropped),
		attribute.Int64(AttrCaptureDuration, utteranceMs),
	}
}

// LLMAttrs creates attributes for LLM operations
func LLMAttrs(provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrLLMProvider, provider),
		attribute.String(AttrLLMModel, model),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(errType, errMsg string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, errMsg),
	}
}
