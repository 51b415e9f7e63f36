package audio

// Framer reslices a stream of arbitrarily sized PCM chunks into frames of
// exactly frameBytes bytes. Audio devices deliver whatever their period size
// is, while VAD models need a fixed window.
//
// Framer is not safe for concurrent use; it is meant to live inside a single
// device callback.
type Framer struct {
	frameBytes int
	pending    []byte
}

// NewFramer creates a framer emitting frames of frameBytes bytes.
func NewFramer(frameBytes int) *Framer {
	return &Framer{
		frameBytes: frameBytes,
		pending:    make([]byte, 0, frameBytes*2),
	}
}

// Write appends data and returns every complete frame now available.
// Each returned frame is a fresh copy owned by the caller.
func (f *Framer) Write(data []byte) [][]byte {
	if f.frameBytes <= 0 {
		return nil
	}
	f.pending = append(f.pending, data...)

	var frames [][]byte
	for len(f.pending) >= f.frameBytes {
		frame := make([]byte, f.frameBytes)
		copy(frame, f.pending[:f.frameBytes])
		frames = append(frames, frame)
		f.pending = f.pending[f.frameBytes:]
	}

	// Compact so the backing array does not grow without bound
	if len(f.pending) > 0 && cap(f.pending) > f.frameBytes*4 {
		rest := make([]byte, len(f.pending), f.frameBytes*2)
		copy(rest, f.pending)
		f.pending = rest
	}
	return frames
}

// Pending returns the number of buffered bytes not yet forming a frame.
func (f *Framer) Pending() int {
	return len(f.pending)
}

// Reset drops any partial frame.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
}
