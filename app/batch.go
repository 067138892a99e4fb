package app

import (
	"time"

	"github.com/artpar/shapegen/core/formatter"
	"github.com/artpar/shapegen/core/schema"
	"github.com/artpar/shapegen/domain/object"
	"github.com/artpar/shapegen/ports"
)

// Target is a named entry of a batch.
type Target struct {
	Name  string
	Value object.Value
}

// Outcome is the per-target record of a batch. Failed targets carry the error
// text and no document.
type Outcome struct {
	Index     int            `json:"index"`
	ClassName string         `json:"className"`
	Document  string         `json:"document,omitempty"`
	Summary   schema.Summary `json:"summary"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}

// BatchResult collects the outcomes of one batch run in input order.
type BatchResult struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Succeeded returns the number of successful outcomes.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (b BatchResult) Failed() int {
	return len(b.Outcomes) - b.Succeeded()
}

// OutcomeTable describes batch outcome records for the formatters.
var OutcomeTable = formatter.Table{
	Title: "batch",
	Columns: []string{
		"index",
		"class_name",
		"success",
		"instance_properties",
		"prototype_properties",
		"prototype_methods",
		"static_properties",
		"static_methods",
		"error",
		"document",
	},
	Internal: []string{"document"},
}

// Records returns the outcomes as formatter records.
func (b BatchResult) Records() []map[string]any {
	records := make([]map[string]any, len(b.Outcomes))
	for i, o := range b.Outcomes {
		rec := o.Summary.Record(o.ClassName)
		rec["index"] = o.Index
		rec["success"] = o.Success
		rec["error"] = o.Error
		rec["document"] = o.Document
		records[i] = rec
	}
	return records
}

// Batch analyzes targets one after another. A failing target, including one
// whose construct hook panics, is recorded as a failed outcome and the batch
// continues.
func (g *Generator) Batch(targets []Target, opts schema.Options) BatchResult {
	result := BatchResult{
		ID:        g.ids.New(),
		StartedAt: g.clock.Now(),
		Outcomes:  make([]Outcome, 0, len(targets)),
	}

	for i, t := range targets {
		result.Outcomes = append(result.Outcomes, g.runOne(i, t.Name, t.Name, t.Value, nil, opts))
	}

	g.finishBatch(result)
	return result
}

// BatchSource resolves names from src and analyzes them in order. An empty
// names list analyzes every target the source declares. Class names are
// derived from the values; names that do not resolve become failed outcomes.
func (g *Generator) BatchSource(src ports.TargetSource, names []string, opts schema.Options) BatchResult {
	if len(names) == 0 {
		names = src.Targets()
	}

	result := BatchResult{
		ID:        g.ids.New(),
		StartedAt: g.clock.Now(),
		Outcomes:  make([]Outcome, 0, len(names)),
	}

	for i, name := range names {
		v, err := src.Resolve(name)
		result.Outcomes = append(result.Outcomes, g.runOne(i, name, "", v, err, opts))
	}

	g.finishBatch(result)
	return result
}

// runOne analyzes one entry. label names a failed outcome; typeName
// overrides the derived class name when non-empty.
func (g *Generator) runOne(index int, label, typeName string, v object.Value, resolveErr error, opts schema.Options) Outcome {
	out := Outcome{Index: index, ClassName: label}

	err := resolveErr
	var analyzed Result
	if err == nil {
		analyzed, err = g.Analyze(v, typeName, opts)
	}

	if err != nil {
		if out.ClassName == "" {
			out.ClassName = UnknownClassName
		}
		out.Error = err.Error()
		g.logger.Warn().
			Err(err).
			Int("index", index).
			Str("class_name", out.ClassName).
			Msg("target failed")
		return out
	}

	out.ClassName = analyzed.ClassName
	out.Document = analyzed.Text
	out.Summary = analyzed.Summary
	out.Success = true
	return out
}

func (g *Generator) finishBatch(result BatchResult) {
	failed := result.Failed()
	if g.recorder != nil {
		g.recorder.ObserveBatch(len(result.Outcomes), failed)
	}
	g.logger.Info().
		Str("batch_id", result.ID).
		Int("targets", len(result.Outcomes)).
		Int("succeeded", result.Succeeded()).
		Int("failed", failed).
		Msg("batch complete")
}
