package api

import "fmt"

// NetworkError wraps a transport-level failure. The workflow reverts to its
// pre-request view and surfaces a dismissable message.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError covers non-2xx responses and payloads carrying an error field.
// Message is what the user sees, sourced from the server when available.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error: %s", e.Message)
}
