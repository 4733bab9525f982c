// Package stream converts Bedrock's binary event-stream invoke responses
// into the SSE stream an Anthropic-compatible client expects.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/rockbridge-dev/rockbridge/internal/eventstream"
)

// readChunkSize is the upstream read buffer. Frames routinely span several
// reads and reads routinely carry several frames; the reassembler owns the
// boundary bookkeeping.
const readChunkSize = 32 * 1024

// State is the transcoder's lifecycle state.
type State int

const (
	StateReading State = iota
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Transcoder drives one upstream byte stream through reassembly, decoding,
// classification and SSE emission. One Transcoder serves one request; it
// holds no shared state and never buffers more than one frame ahead of what
// it has flushed.
type Transcoder struct {
	reasm *eventstream.Reassembler
	emit  *Emitter
	log   *logrus.Entry
	state State
}

// NewTranscoder writes SSE bytes to w. maxFrameBytes <= 0 selects the
// default per-frame safety bound.
func NewTranscoder(w io.Writer, maxFrameBytes int) *Transcoder {
	return &Transcoder{
		reasm: eventstream.NewReassembler(maxFrameBytes),
		emit:  NewEmitter(w),
		log:   logrus.WithField("component", "bedrock_transcoder"),
	}
}

// WithLogger attaches a request-scoped log entry.
func (t *Transcoder) WithLogger(entry *logrus.Entry) *Transcoder {
	t.log = entry
	return t
}

// State reports the current lifecycle state.
func (t *Transcoder) State() State {
	return t.state
}

// Run pumps upstream until EOF, a fatal decode error, or cancellation. It
// transcodes exactly the bytes it receives, exactly once; retrying a failed
// upstream call is the caller's business. Callers bind ctx to the upstream
// request so that a downstream disconnect also aborts the blocking read and
// releases the upstream connection.
func (t *Transcoder) Run(ctx context.Context, upstream io.Reader) error {
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-ctx.Done():
			t.state = StateClosed
			return ctx.Err()
		default:
		}

		n, err := upstream.Read(buf)
		if n > 0 {
			frames, rerr := t.reasm.Append(buf[:n])
			for _, frame := range frames {
				if perr := t.processFrame(frame); perr != nil {
					return t.fail(perr)
				}
			}
			if rerr != nil {
				return t.fail(rerr)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if t.reasm.Pending() {
				return t.fail(fmt.Errorf("%w: upstream ended mid-frame", eventstream.ErrStreamCorrupt))
			}
			t.state = StateClosed
			return nil
		case ctx.Err() != nil:
			// The read failed because we were canceled underneath.
			t.state = StateClosed
			return ctx.Err()
		default:
			return t.fail(fmt.Errorf("upstream read: %w", err))
		}
	}
}

// processFrame runs one complete frame through decode, classification and
// emission. A returned error is fatal for the stream; exception frames and
// unrecognized payloads are not.
func (t *Transcoder) processFrame(frame []byte) error {
	msg, err := eventstream.Decode(frame)
	if err != nil {
		return err
	}

	if ex, ok := ClassifyException(msg); ok {
		t.log.WithField("exception_type", ex.ExceptionType).Warn("upstream exception frame")
		return t.emit.Error(ex.ExceptionType, ex.Detail)
	}

	ev, err := TranscodePayload(msg.Payload)
	if err != nil {
		t.log.WithError(err).Warn("dropping unrecognized frame")
		return nil
	}
	return t.emit.Event(ev.Type, ev.JSON)
}

// fail moves to Errored and makes exactly one best-effort attempt to tell
// the client before the sink closes. A broken sink only logs; nothing is
// thrown past the orchestrator.
func (t *Transcoder) fail(err error) error {
	t.state = StateErrored
	if emitErr := t.emit.Error(errorLabel(err), err.Error()); emitErr != nil {
		t.log.WithError(emitErr).Debug("could not deliver trailing error event")
	}
	return err
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, eventstream.ErrStreamCorrupt):
		return "StreamCorruptError"
	case errors.Is(err, eventstream.ErrFrameCorrupt):
		return "FrameCorruptError"
	default:
		return "InternalStreamError"
	}
}
