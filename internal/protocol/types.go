// Package protocol holds the wire-level types shared by the HTTP surface and
// the stream converters.
package protocol

// ErrorResponse is the Anthropic-style error body returned on the
// non-streaming path.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one API error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewErrorResponse builds an ErrorResponse with the standard envelope type.
func NewErrorResponse(errType, message, code string) ErrorResponse {
	return ErrorResponse{
		Type: "error",
		Error: ErrorDetail{
			Type:    errType,
			Message: message,
			Code:    code,
		},
	}
}
