package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrorBuilder provides a fluent API for building Error objects.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new ErrorBuilder with the given status, code, and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{
		err: Error{
			Status: strconv.Itoa(status),
			Code:   code,
			Title:  title,
		},
	}
}

// Detail sets the error detail message.
func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Detailf sets the error detail message with formatting.
func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// ID sets the request id the error belongs to.
func (b *ErrorBuilder) ID(id string) *ErrorBuilder {
	b.err.ID = id
	return b
}

// Parameter marks a query parameter as the error source.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

// Header marks a request header as the error source.
func (b *ErrorBuilder) Header(header string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Header = header
	return b
}

// Meta adds a metadata entry.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

// Build returns the error object.
func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// Common error constructors

// ErrBadRequest creates a 400 Bad Request error.
func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrInvalidParameter creates a 400 error pointing at a query parameter.
func ErrInvalidParameter(param, reason string) Error {
	return NewError(http.StatusBadRequest, "invalid_parameter", "Invalid Parameter").
		Detailf("%s: %s", param, reason).
		Parameter(param).
		Build()
}

// ErrNotFound creates a 404 Not Found error.
func ErrNotFound(resourceType, name string) Error {
	return NewError(http.StatusNotFound, "not_found", "Not Found").
		Detailf("%s %q was not found", resourceType, name).
		Build()
}

// ErrMethodNotAllowed creates a 405 error listing the supported methods.
func ErrMethodNotAllowed(method string, allowed []string) Error {
	b := NewError(http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed").
		Meta("requested_method", method)
	if len(allowed) == 0 {
		return b.Detailf("The %s method is not allowed for this resource", method).Build()
	}
	return b.Detailf("%s is not supported. Use one of: %s", method, strings.Join(allowed, ", ")).
		Meta("allowed_methods", allowed).
		Build()
}

// ErrPayloadTooLarge creates a 413 error.
func ErrPayloadTooLarge(limit int64) Error {
	return NewError(http.StatusRequestEntityTooLarge, "payload_too_large", "Payload Too Large").
		Detailf("request body exceeds %d bytes", limit).
		Meta("limit_bytes", limit).
		Build()
}

// ErrUnsupportedMediaType creates a 415 error.
func ErrUnsupportedMediaType(contentType string) Error {
	return NewError(http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported Media Type").
		Detailf("cannot read %q input", contentType).
		Header("Content-Type").
		Build()
}

// ErrUnprocessable creates a 422 error for input that parsed but cannot be analyzed.
func ErrUnprocessable(detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "unprocessable", "Unprocessable Entity").Detail(detail).Build()
}

// ErrInternal creates a 500 Internal Server Error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error").Detail(detail).Build()
}

// ErrFromError creates a JSON:API Error from a standard Go error.
func ErrFromError(err error) Error {
	if err == nil {
		return ErrInternal("")
	}
	return ErrInternal(err.Error())
}
