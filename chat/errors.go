package chat

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// APIError is returned for every failed completion request.
type APIError struct {
	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int
	// Message is the backend's error message when it sent one.
	Message string
	// Body is a truncated copy of the offending response body.
	Body string
	// Err is the underlying transport or read error, if any.
	Err error
}

func newStatusError(status int, body []byte) *APIError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = "unexpected status"
	}
	return &APIError{StatusCode: status, Message: msg, Body: truncate(string(body), 500)}
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("API %s: %v", e.Message, e.Err)
	default:
		return "API error: " + e.Message
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status code, or 0.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}
