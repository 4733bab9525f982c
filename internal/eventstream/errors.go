package eventstream

import "errors"

var (
	// ErrStreamCorrupt indicates the byte stream itself can no longer be
	// trusted: a declared frame length outside the accepted bounds, or the
	// stream ended in the middle of a frame. Frame boundaries are cumulative,
	// so there is no way to resynchronize; the stream must be aborted.
	ErrStreamCorrupt = errors.New("event stream corrupt")

	// ErrFrameCorrupt indicates a single frame whose internal structure is
	// inconsistent with its own length fields. Like ErrStreamCorrupt it is
	// fatal for the whole stream, since a bad frame cannot be skipped.
	ErrFrameCorrupt = errors.New("event stream frame corrupt")
)
