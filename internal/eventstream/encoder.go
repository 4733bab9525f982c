package eventstream

import (
	"encoding/binary"
	"hash/crc32"
)

// Encode builds one wire-correct frame from string headers and a payload.
// Both CRCs are computed for real (CRC-32/IEEE over the prelude, then over
// everything preceding the trailer) even though Decode never checks them;
// fixtures built here are indistinguishable from backend output.
func Encode(headers []Header, payload []byte) []byte {
	headerBlock := encodeHeaders(headers)
	total := preludeLen + len(headerBlock) + len(payload) + trailerLen

	frame := make([]byte, 0, total)
	frame = binary.BigEndian.AppendUint32(frame, uint32(total))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(headerBlock)))
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	frame = append(frame, headerBlock...)
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	return frame
}

func encodeHeaders(headers []Header) []byte {
	var block []byte
	for _, h := range headers {
		block = append(block, byte(len(h.Name)))
		block = append(block, h.Name...)
		block = append(block, headerTypeString)
		block = binary.BigEndian.AppendUint16(block, uint16(len(h.Value)))
		block = append(block, h.Value...)
	}
	return block
}
