// Package metrics holds the Prometheus collectors shared by the capture loop
// and the downstream stages. Collectors register with the default registry,
// which is what the status server exposes on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "talk_assist"

// Stage names used for downstream metrics labels.
const (
	StageTranscribe = "transcribe"
	StageClassify   = "classify"
	StageRespond    = "respond"
	StageSpeak      = "speak"
	StagePlayback   = "playback"
	StageSave       = "save"
)

var (
	// Capture metrics
	CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Total number of finalized captures by outcome",
	}, []string{"outcome"})
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_processed_total",
		Help:      "Total number of frames scored by the endpointer",
	})
	VoicedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "voiced_frames_total",
		Help:      "Total number of frames scored at or above the speech threshold",
	})
	OverflowDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "overflow_drops_total",
		Help:      "Total number of frames dropped by the input device",
	})
	UtteranceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "utterance_duration_seconds",
		Help:      "Audio length of finalized utterances",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13},
	})

	// VAD metrics
	VADLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vad_score_seconds",
		Help:      "Time spent scoring one frame",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.03, 0.05},
	})

	// Downstream metrics
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each downstream stage",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"stage"})
	StageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_errors_total",
		Help:      "Total number of downstream stage failures",
	}, []string{"stage"})

	// Status feed metrics
	StatusClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "status_clients",
		Help:      "Number of connected status websocket clients",
	})
	StatusDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_events_dropped_total",
		Help:      "Status events dropped because a client was too slow",
	})
)

// ObserveVAD records the latency of one scorer call.
func ObserveVAD(d time.Duration) {
	VADLatency.Observe(d.Seconds())
}

// ObserveStage records a downstream stage's duration and, if err is set, a failure.
func ObserveStage(stage string, start time.Time, err error) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage).Inc()
	}
}
