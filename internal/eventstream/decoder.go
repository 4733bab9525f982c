package eventstream

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// headerTypeString is the only header value type the Bedrock response path
// produces. The wire format defines more tags (bool, integer widths, byte
// array, timestamp, uuid) but none of them appear in invoke responses, so
// header parsing deliberately stops at the first non-string tag instead of
// implementing the full table. Keep this narrow: silently decoding unknown
// tags would mask genuinely malformed streams.
const headerTypeString = 7

// Header is one decoded (name, value) header pair, in wire order.
type Header struct {
	Name  string
	Value string
}

// Message is one fully decoded frame.
type Message struct {
	Headers []Header
	Payload []byte
}

// Header returns the value of the first header with the given name.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// HasHeaderPrefix reports whether any header name starts with prefix.
func (m *Message) HasHeaderPrefix(prefix string) bool {
	for _, h := range m.Headers {
		if strings.HasPrefix(h.Name, prefix) {
			return true
		}
	}
	return false
}

// Decode splits one complete frame into its headers and payload. The payload
// excludes the 12-byte prelude and the trailing 4-byte message CRC; neither
// CRC is validated. A payload slice that comes out empty or negative means
// the frame's length fields contradict each other, which is ErrFrameCorrupt.
func Decode(frame []byte) (*Message, error) {
	if len(frame) < minFrameLen {
		return nil, fmt.Errorf("%w: frame of %d bytes shorter than minimum %d",
			ErrFrameCorrupt, len(frame), minFrameLen)
	}
	total := int(binary.BigEndian.Uint32(frame[0:4]))
	headersLen := int(binary.BigEndian.Uint32(frame[4:8]))
	if total != len(frame) {
		return nil, fmt.Errorf("%w: declared length %d but frame holds %d bytes",
			ErrFrameCorrupt, total, len(frame))
	}

	payloadStart := preludeLen + headersLen
	payloadEnd := total - trailerLen
	if payloadStart >= payloadEnd {
		return nil, fmt.Errorf("%w: headers length %d leaves no payload in %d-byte frame",
			ErrFrameCorrupt, headersLen, total)
	}

	return &Message{
		Headers: parseHeaders(frame[preludeLen:payloadStart]),
		Payload: frame[payloadStart:payloadEnd],
	}, nil
}

// parseHeaders reads consecutive header entries: 1-byte name length, name,
// 1-byte type tag, and for string headers a 2-byte big-endian value length
// plus value. Any non-string tag, or a field running past the block, ends
// parsing for the frame.
func parseHeaders(block []byte) []Header {
	var headers []Header
	i := 0
	for i < len(block) {
		nameLen := int(block[i])
		i++
		if i+nameLen+1 > len(block) {
			break
		}
		name := string(block[i : i+nameLen])
		i += nameLen

		tag := block[i]
		i++
		if tag != headerTypeString {
			break
		}
		if i+2 > len(block) {
			break
		}
		valueLen := int(binary.BigEndian.Uint16(block[i : i+2]))
		i += 2
		if i+valueLen > len(block) {
			break
		}
		headers = append(headers, Header{Name: name, Value: string(block[i : i+valueLen])})
		i += valueLen
	}
	return headers
}
