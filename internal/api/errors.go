package api

import (
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response body that is not the expected JSON.
type ProtocolError struct {
	Status int
	Body   string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from server: %v", e.Err)
	}
	return "Unexpected response from server"
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Message comes from the body's message
// or detail field, else the status text.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return "Request failed"
}

// IsServerFault reports whether the backend itself failed (5xx).
func (e *ServerError) IsServerFault() bool {
	return e != nil && e.Status >= 500
}
