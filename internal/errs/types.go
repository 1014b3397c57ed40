package errs

import (
	"net/http"
)

// Machine codes of the domain-specific 400 errors.
const (
	CodeNotAJSON     = "NOT_A_JSON"
	CodeMissingField = "MISSING_FIELD"
	CodeInvalidField = "INVALID_FIELD"
)

// NewBadRequestError creates a 400 HTTPError. A nil code defaults to "BAD_REQUEST".
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotJSONError is returned when a request body is not a non-empty JSON object.
func NewNotJSONError() *HTTPError {
	code := CodeNotAJSON
	return NewBadRequestError("Not a JSON", false, &code, nil, nil)
}

// NewMissingFieldError is returned when a create payload lacks a required key.
func NewMissingFieldError(field string) *HTTPError {
	code := CodeMissingField
	return NewBadRequestError("Missing "+field, false, &code, []FieldError{
		{Field: field, Error: "is required"},
	}, nil)
}

// NewInvalidFieldError is returned when payload values fail type or constraint checks.
func NewInvalidFieldError(errors []FieldError) *HTTPError {
	code := CodeInvalidField
	return NewBadRequestError("Invalid fields", false, &code, errors, nil)
}

// NewNotFoundError creates a 404 HTTPError. A nil code defaults to "NOT_FOUND".
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewConflictError creates a 409 HTTPError with the given code.
func NewConflictError(message, code string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// NewTooManyRequestsError is returned by the rate limiter.
func NewTooManyRequestsError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
		Message:  "Rate limit exceeded",
		Status:   http.StatusTooManyRequests,
		Override: false,
	}
}

// NewInternalServerError creates a 500 HTTPError carrying only the generic
// status text; the real cause is logged, never sent.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// ValidationError wraps a generic validation failure into a 400.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}
