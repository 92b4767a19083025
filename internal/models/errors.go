package models

import "fmt"

// ValidationError reports a missing or invalid field, detected before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is invalid", e.Field)
}

// NotFoundError reports that no record matches an identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	kind := e.Kind
	if kind == "" {
		kind = "task"
	}
	return fmt.Sprintf("%s not found: %s", kind, e.ID)
}
