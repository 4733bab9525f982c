package eventstream

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T, eventType string, payload string) []byte {
	t.Helper()
	return Encode([]Header{
		{Name: ":message-type", Value: "event"},
		{Name: ":event-type", Value: eventType},
	}, []byte(payload))
}

// Feeding the same frame sequence through any chunking must reproduce the
// frames byte for byte, in order.
func TestReassembler_ArbitraryChunking(t *testing.T) {
	frames := [][]byte{
		testFrame(t, "chunk", `{"n":1}`),
		testFrame(t, "chunk", `{"n":2}`),
		testFrame(t, "chunk", `{"n":3}`),
	}
	var blob []byte
	for _, f := range frames {
		blob = append(blob, f...)
	}

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 16, 31, len(blob), len(blob) + 10} {
		r := NewReassembler(0)
		var got [][]byte
		for i := 0; i < len(blob); i += chunkSize {
			end := i + chunkSize
			if end > len(blob) {
				end = len(blob)
			}
			out, err := r.Append(blob[i:end])
			require.NoError(t, err, "chunk size %d", chunkSize)
			got = append(got, out...)
		}

		require.Len(t, got, len(frames), "chunk size %d", chunkSize)
		for i, f := range frames {
			assert.Equal(t, f, got[i], "chunk size %d frame %d", chunkSize, i)
		}
		assert.False(t, r.Pending(), "chunk size %d", chunkSize)
	}
}

func TestReassembler_PartialFramePending(t *testing.T) {
	frame := testFrame(t, "chunk", `{"n":1}`)

	r := NewReassembler(0)
	out, err := r.Append(frame[:len(frame)-1])
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, r.Pending())

	out, err = r.Append(frame[len(frame)-1:])
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, frame, out[0])
	assert.False(t, r.Pending())
}

func TestReassembler_OversizedFrameRejected(t *testing.T) {
	prelude := make([]byte, preludeLen)
	binary.BigEndian.PutUint32(prelude, 1<<30)

	r := NewReassembler(1 << 20)
	out, err := r.Append(prelude)
	assert.Empty(t, out)
	require.ErrorIs(t, err, ErrStreamCorrupt)
}

func TestReassembler_ZeroLengthFrameRejected(t *testing.T) {
	prelude := make([]byte, preludeLen)

	r := NewReassembler(0)
	_, err := r.Append(prelude)
	require.ErrorIs(t, err, ErrStreamCorrupt)
}

// A corrupt declaration must surface even when valid frames precede it in
// the same chunk.
func TestReassembler_CorruptAfterValidFrames(t *testing.T) {
	frame := testFrame(t, "chunk", `{"n":1}`)
	bad := make([]byte, preludeLen)
	binary.BigEndian.PutUint32(bad, 2)

	r := NewReassembler(0)
	out, err := r.Append(append(append([]byte{}, frame...), bad...))
	require.ErrorIs(t, err, ErrStreamCorrupt)
	require.Len(t, out, 1)
	assert.Equal(t, frame, out[0])
}

func TestReassembler_ReturnedFramesAreCopies(t *testing.T) {
	frame := testFrame(t, "chunk", `{"n":1}`)

	r := NewReassembler(0)
	out, err := r.Append(frame)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Later appends must not disturb frames already handed out.
	_, err = r.Append(testFrame(t, "chunk", `{"n":2}`))
	require.NoError(t, err)
	assert.Equal(t, frame, out[0])
}
