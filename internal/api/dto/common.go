package dto

// ErrorResponse is the uniform error body. Details carries per-field
// validation messages when a request body fails validation.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
