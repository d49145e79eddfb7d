// Package fault defines the typed error taxonomy shared by the resolver and
// effect layers. Every failure crossing a resolver boundary is converted to
// one of these codes and returned inside a result envelope, never thrown.
package fault

import (
	"errors"
	"fmt"
)

// Code classifies a failure.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodePrecondition     Code = "PRECONDITION_FAILED"
	CodeFieldNotFound    Code = "FIELD_NOT_FOUND"
	CodeFieldNotEditable Code = "FIELD_NOT_EDITABLE"
	CodeEffect           Code = "EFFECT_FAILED"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeInternal         Code = "INTERNAL"
)

// Error is one typed failure, optionally located at a field path.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a typed error.
func New(code Code, path, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// From coerces err into a typed error, defaulting to code when err carries
// no classification of its own.
func From(code Code, path string, err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Code: code, Path: path, Message: err.Error()}
}
