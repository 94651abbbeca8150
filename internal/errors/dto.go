package errors

// ErrorResponse is the wire shape for errors returned by the API layer
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail carries the displayable error information
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewErrorResponse builds the wire error from any error using its hint
func NewErrorResponse(err error) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error: &ErrorDetail{
			Message: Hint(err),
		},
	}
}
