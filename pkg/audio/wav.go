package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes mono 16-bit PCM bytes as a WAV container to w.
func EncodeWAV(w io.WriteSeeker, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	samples := BytesToInt16(pcm)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes mono 16-bit PCM bytes to a WAV file at path.
func WriteWAVFile(path string, pcm []byte, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeWAV(f, pcm, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Clip is decoded 16-bit PCM with its format.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// DecodeWAV reads a WAV container and returns its samples as 16-bit PCM.
// Sources with a different bit depth are rescaled to 16 bits.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav data")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}

	depth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		depth = buf.SourceBitDepth
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case depth == 8:
			// 8-bit WAV is unsigned
			samples[i] = int16((v - 128) << 8)
		case depth > 16:
			samples[i] = int16(v >> uint(depth-16))
		default:
			samples[i] = int16(v)
		}
	}

	channels := int(dec.NumChans)
	if channels == 0 {
		channels = 1
	}

	return &Clip{
		PCM:        Int16ToBytes(samples),
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
	}, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// Mono downmixes an interleaved clip to a single channel by averaging.
func (c *Clip) Mono() *Clip {
	if c.Channels <= 1 {
		return c
	}
	in := BytesToInt16(c.PCM)
	out := make([]int16, len(in)/c.Channels)
	for i := range out {
		var sum int
		for ch := 0; ch < c.Channels; ch++ {
			sum += int(in[i*c.Channels+ch])
		}
		out[i] = int16(sum / c.Channels)
	}
	return &Clip{PCM: Int16ToBytes(out), SampleRate: c.SampleRate, Channels: 1}
}
