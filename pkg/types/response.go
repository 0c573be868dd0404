// Package types holds the JSON envelopes every HTTP response is wrapped in.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details are present only for
// codes whose metadata allows them.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
