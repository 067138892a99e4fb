// Package source opens object graphs from snapshot or JavaScript input.
package source

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/shapegen/adapters/jsclass"
	"github.com/artpar/shapegen/adapters/snapshot"
	"github.com/artpar/shapegen/domain/object"
)

// ErrUnsupportedFormat is returned for inputs that are neither snapshots nor
// JavaScript sources.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies an input encoding.
type Format string

const (
	FormatSnapshot   Format = "snapshot"
	FormatJavaScript Format = "javascript"
)

// DetectPath picks a format from a file extension.
func DetectPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatSnapshot, nil
	case ".js", ".mjs", ".cjs":
		return FormatJavaScript, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// DetectContentType picks a format from a media type. An empty content type
// is treated as a snapshot.
func DetectContentType(contentType string) (Format, error) {
	if contentType == "" {
		return FormatSnapshot, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "application/json", "text/plain":
		return FormatSnapshot, nil
	case "application/javascript", "text/javascript":
		return FormatJavaScript, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
	}
}

// Open loads the graph stored at path.
func Open(ctx context.Context, path string) (*object.Graph, error) {
	format, err := DetectPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	g, err := Load(ctx, format, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return g, nil
}

// LoadContentType loads a graph from bytes labeled with a media type.
func LoadContentType(ctx context.Context, contentType string, data []byte) (*object.Graph, error) {
	format, err := DetectContentType(contentType)
	if err != nil {
		return nil, err
	}
	return Load(ctx, format, data)
}

// Load decodes data in the given format.
func Load(ctx context.Context, format Format, data []byte) (*object.Graph, error) {
	switch format {
	case FormatSnapshot:
		return snapshot.Parse(data)
	case FormatJavaScript:
		return jsclass.Parse(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
