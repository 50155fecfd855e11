package notifications

import "fmt"

// APIError reports a non-2xx answer from Slack.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack returned %d: %s", e.StatusCode, e.Body)
}

// TransportError reports a failure talking to Slack at all: connection,
// TLS, timeout, or reading the response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("communicate with slack: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
