// Package skerror defines the error format rendered by the HTTP API.
package skerror

import "net/http"

// StatusExpiredAccessToken is an HTTP status code used when an access token is expired.
const StatusExpiredAccessToken = 498

// Tags rendered in error payloads.
const (
	TagNotFound         = "not-found"
	TagInvalidAuth      = "invalid-auth"
	TagPermissionDenied = "permission-denied"
	TagInvalidArgument  = "invalid-argument"
	TagInvalidForm      = "invalid-form"
	TagConflict         = "conflict"
	TagExpiredAccess    = "expired-access-token"
	TagExpiredRefresh   = "expired-refresh-token"
)

type (
	// An SKError represents the error format that can be rendered by skystore server.
	SKError struct {
		HTTPCode   int `json:"-"`
		FieldError err `json:"error"`
	}

	err struct {
		Tag     string            `json:"tag,omitempty"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	}
)

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	if skerr, ok := err.(*SKError); ok && skerr.HTTPCode != 0 {
		return skerr.HTTPCode
	}
	return http.StatusInternalServerError
}

// New returns a new SKError with the given message.
func New(message string) *SKError {
	return &SKError{FieldError: err{Message: message}}
}

// NewWithTagCode returns a new SKError with the given code, tag and message.
func NewWithTagCode(code int, tag, message string) *SKError {
	return &SKError{HTTPCode: code, FieldError: err{Tag: tag, Message: message}}
}

// NotFound returns the error rendered for missing and non-visible records.
func NotFound(message string) *SKError {
	return NewWithTagCode(http.StatusNotFound, TagNotFound, message)
}

// InvalidForm returns the error rendered for a rejected form with its per-field messages.
func InvalidForm(fields map[string]string) *SKError {
	e := NewWithTagCode(http.StatusUnprocessableEntity, TagInvalidForm, "The submitted form is invalid.")
	e.FieldError.Fields = fields
	return e
}

// Error implements error interface.
func (e *SKError) Error() string {
	return e.FieldError.Message
}

// Tag returns the tag of the error.
func (e *SKError) Tag() string {
	return e.FieldError.Tag
}

// Fields returns the per-field messages of the error.
func (e *SKError) Fields() map[string]string {
	return e.FieldError.Fields
}
