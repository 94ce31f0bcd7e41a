package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable wraps transport-level failures where no response was
// received. The message is what the UI surfaces verbatim.
var ErrUnreachable = errors.New("cannot reach server")

// APIError is a failure reported by the backend with an HTTP status and,
// when the response body carried one, the backend's own message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// IsUnauthorized reports whether err is a backend authorization failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Message extracts a user-facing message from any error produced by this
// package: the backend's message for API errors, the generic unreachable
// message for transport failures, and err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrUnreachable) {
		return ErrUnreachable.Error()
	}
	return err.Error()
}

// newAPIError builds an APIError from a non-2xx response body.
// The backend reports messages as {"error": "..."}.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := unmarshalLoose(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: status, Message: payload.Error}
	}
	return &APIError{Status: status}
}

func wrapTransportError(err error) error {
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
