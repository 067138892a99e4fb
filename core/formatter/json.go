package formatter

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatList formats a list of records as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, t Table, records []map[string]any, opts FormatOptions) error {
	filtered := t.filterAll(records, opts.Columns)

	output := map[string]any{
		"report": t.Title,
		"count":  len(filtered),
		"data":   filtered,
	}

	return f.encode(w, output, opts.Compact)
}

// FormatRecord formats a single record as JSON.
func (f *JSONFormatter) FormatRecord(w io.Writer, t Table, record map[string]any, opts FormatOptions) error {
	var data any
	if record != nil {
		data = t.filter(record, opts.Columns)
	}

	output := map[string]any{
		"report": t.Title,
		"data":   data,
	}

	return f.encode(w, output, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output, false)
}

// encode writes JSON with sorted object keys, followed by a newline.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	opts := []json.Options{json.Deterministic(true)}
	if !compact {
		opts = append(opts, jsontext.WithIndent("  "))
	}
	if err := json.MarshalWrite(w, data, opts...); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
