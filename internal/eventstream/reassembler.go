// Package eventstream implements the binary framing used by Bedrock's
// streaming invoke responses: length-prefixed frames carrying type-tagged
// headers and an opaque payload, delivered over HTTP in arbitrary chunk
// sizes.
package eventstream

import (
	"encoding/binary"
	"fmt"
)

const (
	// preludeLen covers total length (4), headers length (4) and the prelude
	// CRC (4).
	preludeLen = 12
	// trailerLen is the message CRC at the end of every frame.
	trailerLen = 4
	// minFrameLen is a frame with no headers and no payload.
	minFrameLen = preludeLen + trailerLen

	// DefaultMaxFrameBytes bounds the declared size of a single frame. A
	// malicious or broken upstream declaring a huge total_length must not be
	// able to grow the buffer without limit.
	DefaultMaxFrameBytes = 64 << 20
)

// Reassembler turns an arbitrarily chunked byte stream into complete frames.
// It holds at most one incomplete trailing frame between calls.
type Reassembler struct {
	buf      frameBuffer
	maxFrame int
}

// NewReassembler creates a Reassembler enforcing the given per-frame size
// bound. maxFrame <= 0 selects DefaultMaxFrameBytes.
func NewReassembler(maxFrame int) *Reassembler {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameBytes
	}
	return &Reassembler{maxFrame: maxFrame}
}

// Append feeds one chunk and returns every frame completed by it, in order.
// Each returned slice is an independent copy. Running out of bytes mid-frame
// is not an error; a declared frame length outside [minFrameLen, maxFrame] is
// ErrStreamCorrupt, reported before any buffer of the declared size exists.
func (r *Reassembler) Append(chunk []byte) ([][]byte, error) {
	r.buf.write(chunk)

	var frames [][]byte
	for r.buf.len() >= preludeLen {
		total := int(binary.BigEndian.Uint32(r.buf.bytes()[:4]))
		if total < minFrameLen || total > r.maxFrame {
			return frames, fmt.Errorf("%w: declared frame length %d outside [%d, %d]",
				ErrStreamCorrupt, total, minFrameLen, r.maxFrame)
		}
		if r.buf.len() < total {
			break
		}
		frame := make([]byte, total)
		copy(frame, r.buf.consume(total))
		frames = append(frames, frame)
	}
	return frames, nil
}

// Pending reports whether a partial frame is still buffered. True at
// end-of-stream means the upstream was truncated mid-frame.
func (r *Reassembler) Pending() bool {
	return r.buf.len() > 0
}
