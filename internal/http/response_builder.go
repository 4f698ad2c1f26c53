// Package http serves the ledger's JSON API.
//
// Every response is an envelope: {"success": bool, "error": "...", ...}.
// The builder below keeps that shape in one place.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"daan/internal/core"
)

// JSONResponseBuilder provides a fluent API for building envelope responses.
type JSONResponseBuilder struct {
	statusCode int
	fields     map[string]any
	headers    map[string]string
}

// NewJSONResponse creates a successful 200 response.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		fields:     map[string]any{"success": true},
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Field adds a top-level payload key. "success" and "error" are reserved.
func (b *JSONResponseBuilder) Field(key string, value any) *JSONResponseBuilder {
	if key == "success" || key == "error" {
		return b
	}
	b.fields[key] = value
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.fields)
}

// ErrorResponse creates a failed response carrying message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	b := NewJSONResponse().Status(statusCode)
	b.fields["success"] = false
	b.fields["error"] = message
	return b
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// StatusForError maps an error class to its HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoPendingBalance), errors.Is(err, core.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, core.ErrConfirmation):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// DomainError renders err with the status of its class. Storage and
// unclassified errors are reported generically; details stay in the logs.
func DomainError(err error) *JSONResponseBuilder {
	status := StatusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return ErrorResponse(status, msg).Field("kind", core.Kind(err))
}
