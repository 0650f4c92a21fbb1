// Package apierror provides the error vocabulary shared by services and the HTTP layer.
// Services return *Error values of a closed set of kinds; handlers translate them into
// the APIError envelope so clients never see stack traces or raw DB errors.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string         `json:"detail"`
	Code   string         `json:"code,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError builds the envelope for a service error. Errors outside the closed set
// are reported as a generic internal error.
func FromError(err error) *APIError {
	e, ok := As(err)
	if !ok {
		return &APIError{Detail: "Internal server error", Code: "internal_error"}
	}
	return &APIError{Detail: e.Error(), Code: string(e.Kind), Meta: e.meta()}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Code: string(KindValidation), Fields: fields}
}
