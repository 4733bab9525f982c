package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Emitter serializes logical events into SSE wire bytes. Every emission is
// flushed before Emitter returns; downstream clients expect low-latency
// incremental tokens, so nothing is buffered across emissions.
type Emitter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEmitter wraps a downstream writer. When the writer also implements
// http.Flusher (gin's ResponseWriter does), each emission is flushed.
func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Event writes one normal SSE event: an event: line with the logical event
// type, the JSON body as the data: line, and a blank separator line.
func (e *Emitter) Event(label, data string) error {
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", label, data); err != nil {
		return err
	}
	e.flush()
	return nil
}

type sseErrorEvent struct {
	Type  string        `json:"type"`
	Error sseErrorDetail `json:"error"`
}

type sseErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error writes one error event as a bare data: line, no event: line.
func (e *Emitter) Error(exceptionType, detail string) error {
	body, err := json.Marshal(sseErrorEvent{
		Type: "error",
		Error: sseErrorDetail{
			Type:    "api_error",
			Message: fmt.Sprintf("Bedrock error: %s - %s", exceptionType, detail),
		},
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", body); err != nil {
		return err
	}
	e.flush()
	return nil
}

func (e *Emitter) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
