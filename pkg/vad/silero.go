// Silero VAD scorer backed by onnxruntime_go.
//
// Usage:
//
//	// Initialize the ONNX runtime (call once at startup)
//	if err := vad.InitRuntime(""); err != nil {
//	    log.Fatal(err)
//	}
//	defer vad.DestroyRuntime()
//
//	scorer, err := vad.NewSilero(vad.SileroConfig{
//	    ModelPath:  "models/silero_vad.onnx",
//	    SampleRate: 16000,
//	})
//
//go:build vad

package vad

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/realtime-ai/talk-assist/pkg/audio"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	stateLen   = 2 * 1 * 128
	contextLen = 64
)

var (
	runtimeInitialized bool
	runtimeMu          sync.Mutex
)

// InitRuntime initializes the ONNX runtime environment.
// libraryPath can be empty to use auto-detection, or specify the path to libonnxruntime.so.
func InitRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeInitialized {
		return nil
	}

	if libraryPath == "" {
		libraryPath = findONNXRuntimeLibrary()
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	runtimeInitialized = true
	return nil
}

// DestroyRuntime destroys the ONNX runtime environment.
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeInitialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy ONNX runtime: %w", err)
	}

	runtimeInitialized = false
	return nil
}

func findONNXRuntimeLibrary() string {
	paths := []string{
		os.Getenv("ONNXRUNTIME_LIB"),
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/onnxruntime/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}

	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		for _, dir := range filepath.SplitList(ldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.so"))
		}
	}
	if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
		for _, dir := range filepath.SplitList(dyldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.dylib"))
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Silero scores frames with the Silero VAD model. The LSTM state and a short
// audio context are carried from one frame to the next, so a Silero instance
// belongs to exactly one capture session at a time.
type Silero struct {
	session *ort.DynamicAdvancedSession
	cfg     SileroConfig

	state      [stateLen]float32
	ctx        [contextLen]float32
	currSample int

	mu sync.Mutex
}

// NewSilero loads the model and returns a ready scorer.
// The ONNX runtime is initialized on first use if InitRuntime was not called.
func NewSilero(cfg SileroConfig) (*Silero, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := InitRuntime(""); err != nil {
		return nil, fmt.Errorf("ONNX runtime not initialized: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	// One thread keeps per-frame latency predictable on the capture goroutine
	if err := options.SetIntraOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Silero{session: session, cfg: cfg}, nil
}

// Score implements Scorer.
func (s *Silero) Score(frame []byte, sampleRate int) (float32, error) {
	if s == nil || s.session == nil {
		return 0, fmt.Errorf("silero: scorer is closed")
	}
	if sampleRate != s.cfg.SampleRate {
		return 0, fmt.Errorf("%w: %d (model loaded for %d)", ErrSampleRate, sampleRate, s.cfg.SampleRate)
	}
	if want := s.cfg.WindowSamples() * 2; len(frame) != want {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), want)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prob, err := s.infer(audio.BytesToFloat32(frame))
	if err != nil {
		return 0, err
	}
	return clamp01(prob), nil
}

func (s *Silero) infer(samples []float32) (float32, error) {
	pcm := samples
	if s.currSample > 0 {
		pcm = append(append(make([]float32, 0, contextLen+len(samples)), s.ctx[:]...), samples...)
	}
	if len(samples) >= contextLen {
		copy(s.ctx[:], samples[len(samples)-contextLen:])
	}
	s.currSample += len(samples)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(pcm))), pcm)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	stateTensor, err := ort.NewTensor(ort.NewShape(2, 1, 128), s.state[:])
	if err != nil {
		return 0, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer stateTensor.Destroy()

	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(s.cfg.SampleRate)})
	if err != nil {
		return 0, fmt.Errorf("failed to create sr tensor: %w", err)
	}
	defer srTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 128))
	if err != nil {
		return 0, fmt.Errorf("failed to create stateN tensor: %w", err)
	}
	defer stateNTensor.Destroy()

	inputs := []ort.Value{inputTensor, stateTensor, srTensor}
	outputs := []ort.Value{outputTensor, stateNTensor}
	if err := s.session.Run(inputs, outputs); err != nil {
		return 0, fmt.Errorf("failed to run inference: %w", err)
	}

	copy(s.state[:], stateNTensor.GetData())

	out := outputTensor.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("empty output from inference")
	}
	return out[0], nil
}

// Reset implements Resetter.
func (s *Silero) Reset() error {
	if s == nil {
		return fmt.Errorf("invalid nil scorer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = [stateLen]float32{}
	s.ctx = [contextLen]float32{}
	s.currSample = 0
	return nil
}

// Close implements Closer.
func (s *Silero) Close() error {
	if s == nil {
		return fmt.Errorf("invalid nil scorer")
	}
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		s.session = nil
	}
	return nil
}

var (
	_ Scorer   = (*Silero)(nil)
	_ Resetter = (*Silero)(nil)
	_ Closer   = (*Silero)(nil)
)
