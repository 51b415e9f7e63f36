package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeNoneExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporter = ExporterNone

	require.NoError(t, Initialize(context.Background(), cfg))
	defer Shutdown(context.Background())

	assert.Error(t, Initialize(context.Background(), cfg), "second initialize must fail")

	ctx, span := InstrumentCapture(context.Background(), 16000, 480)
	defer span.End()

	assert.NotEmpty(t, TraceID(ctx))
	assert.Contains(t, LogWithTrace(ctx, "captured"), "trace_id=")
}

func TestInitializeUnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporter = "carrier-pigeon"
	assert.Error(t, Initialize(context.Background(), cfg))
}

func TestWithSpanReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := WithSpan(context.Background(), "test", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestLogWithTraceWithoutSpan(t *testing.T) {
	assert.Equal(t, "hello", LogWithTrace(context.Background(), "hello"))
}

func TestCaptureAttrs(t *testing.T) {
	attrs := CaptureAttrs("speech", 11, 1, 10, 0, 330)
	require.Len(t, attrs, 6)
	assert.Equal(t, AttrCaptureOutcome, string(attrs[0].Key))
	assert.Equal(t, "speech", attrs[0].Value.AsString())
}

func TestConfigFromEnv(t *testing.T) {
	env := map[string]string{
		EnvExporter:     ExporterStdout,
		EnvOTLPEndpoint: "collector:4317",
		EnvSampleRatio:  "0.25",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := ConfigFromEnv(lookup)
	require.NoError(t, err)
	assert.Equal(t, ExporterStdout, cfg.Exporter)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.InDelta(t, 0.25, cfg.SampleRatio, 1e-9)

	env[EnvSampleRatio] = "2"
	_, err = ConfigFromEnv(lookup)
	assert.Error(t, err)

	env[EnvSampleRatio] = "abc"
	_, err = ConfigFromEnv(lookup)
	assert.Error(t, err)
}
