package stream

// Header names used by the Bedrock event-stream framing.
const (
	headerMessageType   = ":message-type"
	headerExceptionType = ":exception-type"

	messageTypeException = "exception"
)

// defaultEventLabel is used when a decoded event carries no usable "type"
// field; the data line is still forwarded verbatim.
const defaultEventLabel = "message"

// defaultExceptionType labels exception frames whose :exception-type header
// is absent.
const defaultExceptionType = "UnknownException"

// LogicalEvent is one decoded content frame, ready for SSE emission.
// Events are created per frame and consumed immediately, never persisted.
type LogicalEvent struct {
	Type string // SSE event: label
	JSON string // rewritten event body, forwarded as the data: line
}

// ExceptionEvent is an out-of-band error frame reported by the backend. It
// becomes one client-visible error event; the stream continues afterwards.
type ExceptionEvent struct {
	ExceptionType string
	Detail        string
}
