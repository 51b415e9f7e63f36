package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// BytesPerSample is the size of one 16-bit PCM sample.
	BytesPerSample = 2
	// DefaultSampleRate is the capture rate used throughout the assistant.
	DefaultSampleRate = 16000
)

// ErrOverflow is reported by a frame source when it had to drop frames
// because the consumer fell behind. It is recoverable: the next read
// continues with the most recent audio.
var ErrOverflow = errors.New("audio: input overflow, frames dropped")

// OverflowError is an ErrOverflow that knows how many frames one burst lost.
type OverflowError struct {
	Frames int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("audio: input overflow, %d frames dropped", e.Frames)
}

// Is makes errors.Is(err, ErrOverflow) hold.
func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// OverflowFrames returns how many frames err says were lost: the count of an
// OverflowError, 1 for a bare ErrOverflow and 0 for anything else.
func OverflowFrames(err error) int {
	var oe *OverflowError
	if errors.As(err, &oe) {
		return oe.Frames
	}
	if errors.Is(err, ErrOverflow) {
		return 1
	}
	return 0
}

// BytesToInt16 converts little-endian 16-bit PCM bytes to samples.
// A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}

// Int16ToBytes converts samples to little-endian 16-bit PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// BytesToFloat32 converts 16-bit PCM bytes to samples normalized to [-1, 1).
func BytesToFloat32(data []byte) []float32 {
	n := len(data) / BytesPerSample
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// Float32ToBytes converts normalized samples back to 16-bit PCM bytes,
// clamping values outside [-1, 1].
func Float32ToBytes(samples []float32) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		v := int32(f * 32767)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return data
}

// RMS returns the root-mean-square level of 16-bit PCM bytes, normalized to [0, 1].
func RMS(data []byte) float64 {
	n := len(data) / BytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(data[i*2:i*2+2]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// Duration returns the play time of mono 16-bit PCM bytes at sampleRate.
func Duration(byteLen, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := byteLen / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// FrameBytes returns the byte size of a mono 16-bit frame of frameSamples samples.
func FrameBytes(frameSamples int) int {
	return frameSamples * BytesPerSample
}

// SamplesForDuration returns how many samples span d at sampleRate.
func SamplesForDuration(sampleRate int, d time.Duration) int {
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}
