package types

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ResultResponse wraps the outcome of a write
type ResultResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
}
