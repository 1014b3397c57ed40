package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *HTTPError
		status  int
		code    string
		message string
	}{
		{"not json", NewNotJSONError(), http.StatusBadRequest, CodeNotAJSON, "Not a JSON"},
		{"missing field", NewMissingFieldError("user_id"), http.StatusBadRequest, CodeMissingField, "Missing user_id"},
		{"invalid field", NewInvalidFieldError(nil), http.StatusBadRequest, CodeInvalidField, "Invalid fields"},
		{"not found", NewNotFoundError("Place not found", false, nil), http.StatusNotFound, "NOT_FOUND", "Place not found"},
		{"bad request", NewBadRequestError("nope", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST", "nope"},
		{"too many", NewTooManyRequestsError(), http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Errorf("status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Error() != tt.message {
				t.Errorf("message = %q, want %q", tt.err.Error(), tt.message)
			}
		})
	}
}

func TestMissingFieldCarriesFieldError(t *testing.T) {
	err := NewMissingFieldError("text")
	if len(err.Errors) != 1 || err.Errors[0].Field != "text" {
		t.Fatalf("errors = %+v, want one entry for text", err.Errors)
	}
}

func TestIsMatchesWrappedHTTPError(t *testing.T) {
	wrapped := fmt.Errorf("create review: %w", NewNotFoundError("User not found", false, nil))

	if !errors.Is(wrapped, &HTTPError{}) {
		t.Fatal("errors.Is did not match a wrapped *HTTPError")
	}

	var httpErr *HTTPError
	if !errors.As(wrapped, &httpErr) || httpErr.Status != http.StatusNotFound {
		t.Fatalf("errors.As = %+v, want 404", httpErr)
	}
}

func TestWithMessageCopies(t *testing.T) {
	base := NewNotFoundError("Not found", false, nil)
	custom := base.WithMessage("City not found")

	if base.Message != "Not found" {
		t.Errorf("original mutated: %q", base.Message)
	}
	if custom.Message != "City not found" || custom.Status != http.StatusNotFound {
		t.Errorf("copy = %+v", custom)
	}
}
