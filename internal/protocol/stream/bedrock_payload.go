package stream

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// TranscodePayload extracts the inner Anthropic event from a content frame
// payload: a JSON object whose "bytes" field carries the event as base64.
// The returned error marks the frame as unrecognized; callers log and drop
// it, one bad frame must not kill a healthy stream.
func TranscodePayload(payload []byte) (*LogicalEvent, error) {
	envelope := gjson.GetBytes(payload, "bytes")
	if envelope.Type != gjson.String {
		return nil, fmt.Errorf("payload has no base64 %q envelope", "bytes")
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.String())
	if err != nil {
		return nil, fmt.Errorf("decode bytes envelope: %w", err)
	}

	decoded = RewriteToolUseIDs(decoded)

	label := defaultEventLabel
	if typ := gjson.GetBytes(decoded, "type"); typ.Type == gjson.String && typ.Str != "" {
		label = typ.Str
	}

	return &LogicalEvent{Type: label, JSON: string(decoded)}, nil
}
