package jsonapi

import (
	"net/http"

	"github.com/go-json-experiment/json"
)

// WriteDocument writes a JSON:API document to the response.
func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.MarshalWrite(w, doc, json.Deterministic(true))
}

// NewErrorDocument wraps errors in a document.
func NewErrorDocument(errs ...Error) Document {
	return Document{Errors: errs, JSONAPI: &JSONAPI{Version: Version}}
}

// WriteError writes an error response with one or more errors.
// The HTTP status is derived from the first error's status field.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		WriteDocument(w, http.StatusInternalServerError, NewErrorDocument(ErrInternal("")))
		return
	}

	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	WriteDocument(w, status, NewErrorDocument(errs...))
}

// WriteMeta writes a response with only metadata.
func WriteMeta(w http.ResponseWriter, status int, meta Meta) {
	WriteDocument(w, status, Document{Meta: meta})
}

// WriteBadRequest is a convenience for 400 errors.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, ErrBadRequest(detail))
}

// WriteMethodNotAllowed is a convenience for 405 errors.
// It sets the Allow header per RFC 7231 and includes allowed methods in the error body.
func WriteMethodNotAllowed(w http.ResponseWriter, method string, allowedMethods []string) {
	if len(allowedMethods) > 0 {
		allowHeader := ""
		for i, m := range allowedMethods {
			if i > 0 {
				allowHeader += ", "
			}
			allowHeader += m
		}
		w.Header().Set("Allow", allowHeader)
	}
	WriteError(w, ErrMethodNotAllowed(method, allowedMethods))
}

// WriteInternalError is a convenience for 500 errors.
func WriteInternalError(w http.ResponseWriter, detail string) {
	WriteError(w, ErrInternal(detail))
}

// WriteErrorFromGo converts a Go error to a JSON:API error response.
func WriteErrorFromGo(w http.ResponseWriter, err error) {
	WriteError(w, ErrFromError(err))
}
