// Package http provides the HTTP API for schema generation.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/artpar/shapegen/adapters/jsclass"
	"github.com/artpar/shapegen/adapters/snapshot"
	"github.com/artpar/shapegen/adapters/source"
	"github.com/artpar/shapegen/app"
	"github.com/artpar/shapegen/core/schema"
	"github.com/artpar/shapegen/domain/descriptor"
	"github.com/artpar/shapegen/domain/object"
	"github.com/artpar/shapegen/pkg/jsonapi"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

// GenerateResponse is the JSON body of a successful generate request.
type GenerateResponse struct {
	ClassName string         `json:"className"`
	Document  string         `json:"document"`
	Summary   schema.Summary `json:"summary"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// GenerateHandler serves the generate and batch endpoints.
type GenerateHandler struct {
	generator    *app.Generator
	options      func() schema.Options
	logger       zerolog.Logger
	maxBodyBytes int64
}

// NewGenerateHandler creates a handler. options is consulted on every request
// so that reloaded configuration takes effect; nil uses the defaults.
func NewGenerateHandler(gen *app.Generator, options func() schema.Options, logger zerolog.Logger) *GenerateHandler {
	if options == nil {
		options = schema.DefaultOptions
	}
	return &GenerateHandler{
		generator:    gen,
		options:      options,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// SetMaxBodyBytes overrides the request body limit.
func (h *GenerateHandler) SetMaxBodyBytes(n int64) {
	if n > 0 {
		h.maxBodyBytes = n
	}
}

// Generate analyzes one target of the posted graph.
//
// Query parameters: target (required unless the graph has exactly one
// target), name, instance, inherited, non_enumerable, callbacks.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r)
	if !ok {
		return
	}

	graph, ok := h.loadGraph(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	name := q.Get("target")
	if name == "" {
		targets := graph.Targets()
		if len(targets) != 1 {
			jsonapi.WriteError(w, jsonapi.ErrInvalidParameter("target", "required when the input declares more than one target"))
			return
		}
		name = targets[0]
	}
	if q.Get("instance") != "" {
		instance, err := strconv.ParseBool(q.Get("instance"))
		if err != nil {
			jsonapi.WriteError(w, jsonapi.ErrInvalidParameter("instance", "must be a boolean"))
			return
		}
		if instance {
			name += jsclass.InstanceSuffix
		}
	}

	target, err := graph.Resolve(name)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrNotFound("target", name))
		return
	}

	res, err := h.generator.Analyze(target, q.Get("name"), opts)
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}

	if wantsYAML(r) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, res.Text)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		ClassName: res.ClassName,
		Document:  res.Text,
		Summary:   res.Summary,
	})
}

// Batch analyzes the targets named by repeated target parameters, or every
// declared target when none is given.
func (h *GenerateHandler) Batch(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r)
	if !ok {
		return
	}

	graph, ok := h.loadGraph(w, r)
	if !ok {
		return
	}

	result := h.generator.BatchSource(graph, r.URL.Query()["target"], opts)
	writeJSON(w, http.StatusOK, result)
}

func (h *GenerateHandler) loadGraph(w http.ResponseWriter, r *http.Request) (*object.Graph, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonapi.WriteError(w, jsonapi.ErrPayloadTooLarge(h.maxBodyBytes))
			return nil, false
		}
		jsonapi.WriteBadRequest(w, "failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		jsonapi.WriteBadRequest(w, "request body is empty")
		return nil, false
	}

	contentType := r.Header.Get("Content-Type")
	graph, err := source.LoadContentType(r.Context(), contentType, body)
	switch {
	case err == nil:
		return graph, true
	case errors.Is(err, source.ErrUnsupportedFormat):
		jsonapi.WriteError(w, jsonapi.ErrUnsupportedMediaType(contentType))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusServiceUnavailable, "canceled", "Request Canceled").Build())
	default:
		jsonapi.WriteError(w, inputError(err))
	}
	return nil, false
}

// inputError maps a load failure to a 400 error, pointing at the snapshot
// path when there is one.
func inputError(err error) jsonapi.Error {
	b := jsonapi.NewError(http.StatusBadRequest, "invalid_input", "Invalid Input").Detail(err.Error())
	var se *snapshot.Error
	if errors.As(err, &se) {
		b.Meta("path", se.Path)
		if se.Line > 0 {
			b.Meta("line", se.Line)
		}
	}
	return b.Build()
}

func (h *GenerateHandler) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidTarget), errors.Is(err, descriptor.ErrMalformedChain):
		jsonapi.WriteError(w, jsonapi.ErrUnprocessable(err.Error()))
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("analysis failed")
		jsonapi.WriteInternalError(w, "analysis failed")
	}
}

// requestOptions applies per-request overrides to the configured options.
func (h *GenerateHandler) requestOptions(w http.ResponseWriter, r *http.Request) (schema.Options, bool) {
	opts := h.options()
	q := r.URL.Query()

	for _, p := range []struct {
		param string
		dst   *bool
	}{
		{"inherited", &opts.IncludeInherited},
		{"non_enumerable", &opts.IncludeNonEnumerable},
		{"callbacks", &opts.GenerateCallbacks},
	} {
		raw := q.Get(p.param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			jsonapi.WriteError(w, jsonapi.ErrInvalidParameter(p.param, "must be a boolean"))
			return opts, false
		}
		*p.dst = v
	}
	return opts, true
}

func wantsYAML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/yaml") ||
		strings.Contains(accept, "application/x-yaml") ||
		strings.Contains(accept, "text/yaml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.MarshalWrite(w, v, json.Deterministic(true))
}

// Liveness returns a simple liveness check.
func Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// VersionHandler returns a handler reporting the service version.
func VersionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{
			Version: version,
			Service: "shapegen",
		})
	}
}
