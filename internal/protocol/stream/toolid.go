package stream

import (
	"bytes"
	"regexp"
)

// Bedrock mints tool_use ids as toolu_bdrk_01 followed by exactly 22
// alphanumerics; the Anthropic-compatible surface expects tooluse_ plus the
// same 22 characters. The rewrite runs on the raw event text instead of a
// parse/rewrite/reserialize cycle, so it must stay scoped to the two fields
// that actually carry tool ids ("id" and "tool_use_id"): an identical-looking
// string inside any other field is never altered.
var toolUseIDPattern = regexp.MustCompile(`("(?:id|tool_use_id)"\s*:\s*")toolu_bdrk_01([A-Za-z0-9]{22})"`)

var toolUseIDMarker = []byte("toolu_bdrk_01")

// RewriteToolUseIDs returns b with Bedrock tool_use ids rewritten in place.
// Text without the Bedrock marker is returned untouched.
func RewriteToolUseIDs(b []byte) []byte {
	if !bytes.Contains(b, toolUseIDMarker) {
		return b
	}
	return toolUseIDPattern.ReplaceAll(b, []byte(`${1}tooluse_${2}"`))
}
