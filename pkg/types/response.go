package types

// SuccessEnvelope wraps every successful response. Data is always present and
// may be null.
type SuccessEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed response.
type ErrorEnvelope struct {
	Status  bool     `json:"status"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}
