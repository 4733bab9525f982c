package stream

import (
	"github.com/rockbridge-dev/rockbridge/internal/eventstream"
)

// ClassifyException inspects a decoded frame's headers and reports whether it
// is an out-of-band error frame rather than content. A frame is an exception
// when :message-type is "exception" or when any header name starts with
// :exception-type. The exception type comes from the :exception-type header
// itself; the raw payload text is the detail.
func ClassifyException(msg *eventstream.Message) (*ExceptionEvent, bool) {
	mt, _ := msg.Header(headerMessageType)
	if mt != messageTypeException && !msg.HasHeaderPrefix(headerExceptionType) {
		return nil, false
	}

	exType, ok := msg.Header(headerExceptionType)
	if !ok || exType == "" {
		exType = defaultExceptionType
	}
	return &ExceptionEvent{
		ExceptionType: exType,
		Detail:        string(msg.Payload),
	}, true
}
