package stream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockbridge-dev/rockbridge/internal/eventstream"
)

func contentFrame(t *testing.T, inner string) []byte {
	t.Helper()
	payload := []byte(`{"bytes":"` + base64.StdEncoding.EncodeToString([]byte(inner)) + `"}`)
	return eventstream.Encode([]eventstream.Header{
		{Name: ":message-type", Value: "event"},
		{Name: ":event-type", Value: "chunk"},
	}, payload)
}

func exceptionFrame(t *testing.T, exType, detail string) []byte {
	t.Helper()
	return eventstream.Encode([]eventstream.Header{
		{Name: ":message-type", Value: "exception"},
		{Name: ":exception-type", Value: exType},
	}, []byte(detail))
}

func TestTranscoder_EndToEnd(t *testing.T) {
	var blob []byte
	for i := 1; i <= 3; i++ {
		inner := fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"tok%d"}}`, i)
		blob = append(blob, contentFrame(t, inner)...)
	}

	// Split mid-frame so the second chunk completes the pending frame.
	cut := len(blob)/2 + 3

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	require.NoError(t, tr.Run(context.Background(), io.MultiReader(
		bytes.NewReader(blob[:cut]),
		bytes.NewReader(blob[cut:]),
	)))
	assert.Equal(t, StateClosed, tr.State())

	out := sink.String()
	units := strings.Split(strings.TrimSuffix(out, "\n\n"), "\n\n")
	require.Len(t, units, 3)
	for i, unit := range units {
		assert.True(t, strings.HasPrefix(unit, "event: content_block_delta\ndata: "), "unit %d: %q", i, unit)
		assert.Contains(t, unit, fmt.Sprintf(`"text":"tok%d"`, i+1))
	}
	// Clean close: nothing after the final separator.
	assert.True(t, strings.HasSuffix(out, "\n\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n\n"))
}

func TestTranscoder_OneByteChunks(t *testing.T) {
	frame := contentFrame(t, `{"type":"message_stop"}`)

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	require.NoError(t, tr.Run(context.Background(), iotest(frame)))
	assert.Equal(t, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n", sink.String())
}

// iotest returns a reader that yields one byte per Read call.
func iotest(b []byte) io.Reader {
	return &oneByteReader{b: b}
}

type oneByteReader struct{ b []byte }

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	p[0] = r.b[0]
	r.b = r.b[1:]
	return 1, nil
}

func TestTranscoder_ExceptionDoesNotHaltStream(t *testing.T) {
	var blob []byte
	blob = append(blob, contentFrame(t, `{"type":"message_start"}`)...)
	blob = append(blob, exceptionFrame(t, "ThrottlingException", "slow down")...)
	blob = append(blob, contentFrame(t, `{"type":"message_stop"}`)...)

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	require.NoError(t, tr.Run(context.Background(), bytes.NewReader(blob)))
	assert.Equal(t, StateClosed, tr.State())

	out := sink.String()
	assert.Contains(t, out, "event: message_start\n")
	assert.Contains(t, out, `data: {"type":"error","error":{"type":"api_error","message":"Bedrock error: ThrottlingException - slow down"}}`+"\n\n")
	assert.Contains(t, out, "event: message_stop\n")
	assert.Less(t, strings.Index(out, "message_start"), strings.Index(out, "ThrottlingException"))
	assert.Less(t, strings.Index(out, "ThrottlingException"), strings.Index(out, "message_stop"))
}

func TestTranscoder_UnrecognizedPayloadSkipped(t *testing.T) {
	var blob []byte
	blob = append(blob, eventstream.Encode([]eventstream.Header{
		{Name: ":message-type", Value: "event"},
	}, []byte(`{"no_envelope":true}`))...)
	blob = append(blob, contentFrame(t, `{"type":"message_stop"}`)...)

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	require.NoError(t, tr.Run(context.Background(), bytes.NewReader(blob)))

	out := sink.String()
	assert.NotContains(t, out, "no_envelope")
	assert.Contains(t, out, "event: message_stop\n")
}

func TestTranscoder_TruncatedStream(t *testing.T) {
	frame := contentFrame(t, `{"type":"message_start"}`)

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	err := tr.Run(context.Background(), bytes.NewReader(frame[:len(frame)-2]))
	require.ErrorIs(t, err, eventstream.ErrStreamCorrupt)
	assert.Equal(t, StateErrored, tr.State())
	assert.Contains(t, sink.String(), `"message":"Bedrock error: StreamCorruptError - `)
}

func TestTranscoder_OversizedFrame(t *testing.T) {
	prelude := make([]byte, 12)
	binary.BigEndian.PutUint32(prelude, 1<<31)

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	err := tr.Run(context.Background(), bytes.NewReader(prelude))
	require.ErrorIs(t, err, eventstream.ErrStreamCorrupt)
	assert.Equal(t, StateErrored, tr.State())
}

func TestTranscoder_CorruptFrame(t *testing.T) {
	frame := contentFrame(t, `{"type":"message_start"}`)
	// headers_length that swallows the payload.
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(frame)))

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	err := tr.Run(context.Background(), bytes.NewReader(frame))
	require.ErrorIs(t, err, eventstream.ErrFrameCorrupt)
	assert.Equal(t, StateErrored, tr.State())
	assert.Contains(t, sink.String(), "FrameCorruptError")
}

func TestTranscoder_CancellationStopsReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	upstream := &blockingReader{unblock: make(chan struct{})}
	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, upstream) }()

	cancel()
	close(upstream.unblock)

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateClosed, tr.State())
	case <-time.After(2 * time.Second):
		t.Fatal("transcoder did not stop after cancellation")
	}
	assert.Empty(t, sink.String())
}

// blockingReader blocks until unblocked, then reports a closed connection.
type blockingReader struct{ unblock chan struct{} }

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.unblock
	return 0, fmt.Errorf("use of closed network connection")
}

func TestTranscoder_UpstreamTransportError(t *testing.T) {
	frame := contentFrame(t, `{"type":"message_start"}`)
	upstream := io.MultiReader(bytes.NewReader(frame), &failingReader{})

	var sink bytes.Buffer
	tr := NewTranscoder(&sink, 0)
	err := tr.Run(context.Background(), upstream)
	require.Error(t, err)
	assert.Equal(t, StateErrored, tr.State())
	// The healthy frame was already flushed and stands.
	assert.Contains(t, sink.String(), "event: message_start\n")
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("connection reset by peer")
}
