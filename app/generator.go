// Package app contains the Generator service that turns object graphs into
// schema documents.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/shapegen/core/schema"
	"github.com/artpar/shapegen/domain/classify"
	"github.com/artpar/shapegen/domain/construct"
	"github.com/artpar/shapegen/domain/descriptor"
	"github.com/artpar/shapegen/domain/object"
	"github.com/artpar/shapegen/ports"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidTarget is returned for targets that are not objects.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrAnalysisPanic is returned when analysis of a target panics, for
	// example inside a construct hook.
	ErrAnalysisPanic = errors.New("analysis panicked")
)

// UnknownClassName is used when no name can be derived for a target.
const UnknownClassName = "UnknownClass"

// Result is the outcome of analyzing one target.
type Result struct {
	ClassName string
	Document  *schema.Document
	Text      string
	Summary   schema.Summary
	Model     schema.Model
}

// Generator analyzes targets and renders their schema documents.
// It holds no per-call state and is safe for concurrent use.
type Generator struct {
	clock    ports.Clock
	ids      ports.IDGenerator
	logger   zerolog.Logger
	recorder ports.AnalysisRecorder
}

// NewGenerator creates a new generator.
func NewGenerator(clock ports.Clock, ids ports.IDGenerator, logger zerolog.Logger) *Generator {
	return &Generator{
		clock:  clock,
		ids:    ids,
		logger: logger,
	}
}

// WithRecorder returns a copy of g that reports measurements to r.
func (g *Generator) WithRecorder(r ports.AnalysisRecorder) *Generator {
	cp := *g
	cp.recorder = r
	return &cp
}

// Analyze classifies target and renders its document. name overrides the
// derived class name when non-empty. A malformed prototype chain fails with
// descriptor.ErrMalformedChain. A panic during analysis is returned as
// ErrAnalysisPanic.
func (g *Generator) Analyze(target object.Value, name string, opts schema.Options) (Result, error) {
	start := g.clock.Now()

	res, err := g.guardedAnalyze(target, name, opts, start)
	if err != nil {
		g.observe("failure", start)
		return Result{}, err
	}

	g.observe("success", start)
	g.logger.Debug().
		Str("class_name", res.ClassName).
		Int("instance_properties", res.Summary.InstanceProperties).
		Int("prototype_properties", res.Summary.PrototypeProperties).
		Int("prototype_methods", res.Summary.PrototypeMethods).
		Int("static_properties", res.Summary.StaticProperties).
		Int("static_methods", res.Summary.StaticMethods).
		Str("constructor", res.Model.Constructor.Status.String()).
		Msg("target analyzed")
	return res, nil
}

func (g *Generator) guardedAnalyze(target object.Value, name string, opts schema.Options, now time.Time) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrAnalysisPanic, r)
		}
	}()
	return g.analyze(target, name, opts, now)
}

func (g *Generator) analyze(target object.Value, name string, opts schema.Options, now time.Time) (Result, error) {
	if !target.IsObject() {
		return Result{}, fmt.Errorf("%w: %s is not an object", ErrInvalidTarget, target.Kind())
	}
	if opts.MaxChainDepth <= 0 {
		opts.MaxChainDepth = descriptor.DefaultMaxDepth
	}

	o := target.Object()
	className := name
	if className == "" {
		className = deriveClassName(o, opts.MaxChainDepth)
	}

	m, err := g.buildModel(o, opts)
	if err != nil {
		return Result{}, fmt.Errorf("analyze %s: %w", className, err)
	}
	m.GeneratedAt = now

	doc := schema.Build(m, className, opts)
	summary := m.Summary()

	if g.recorder != nil {
		g.recorder.ObserveConstructor(m.Constructor.Status.String())
		g.recorder.ObserveSections(map[string]int{
			schema.SectionInstanceProperties:  summary.InstanceProperties,
			schema.SectionPrototypeProperties: summary.PrototypeProperties,
			schema.SectionPrototypeMethods:    summary.PrototypeMethods,
			schema.SectionStaticProperties:    summary.StaticProperties,
			schema.SectionStaticMethods:       summary.StaticMethods,
		})
	}

	return Result{
		ClassName: className,
		Document:  doc,
		Text:      doc.Text(),
		Summary:   summary,
		Model:     m,
	}, nil
}

// buildModel collects and classifies every surface and probes the constructor.
func (g *Generator) buildModel(o *object.Object, opts schema.Options) (schema.Model, error) {
	collect := opts.CollectOptions()

	surfaces := make(map[descriptor.Surface][]classify.Property, 3)
	for _, s := range []descriptor.Surface{descriptor.Instance, descriptor.Prototype, descriptor.Static} {
		set, err := descriptor.Collect(o, s, collect)
		if err != nil {
			return schema.Model{}, fmt.Errorf("collect %s surface: %w", s, err)
		}
		surfaces[s] = classify.Partition(set.Entries(), opts.IncludeNonEnumerable)
	}

	proto := descriptor.PrototypeOf(o)

	outcome := construct.Outcome{Status: construct.NotApplicable}
	instance := o
	if o.Callable() {
		outcome = construct.Probe(o)
		instance = nil
	}

	return schema.Model{
		Extends:     extendsName(proto, opts.MaxChainDepth),
		ToStringTag: stringTag(opts.MaxChainDepth, proto, instance),
		Constructor: outcome,
		Instance:    surfaces[descriptor.Instance],
		Prototype:   surfaces[descriptor.Prototype],
		Static:      surfaces[descriptor.Static],
	}, nil
}

func (g *Generator) observe(result string, start time.Time) {
	if g.recorder != nil {
		g.recorder.ObserveTarget(result, g.clock.Now().Sub(start))
	}
}

// deriveClassName uses a constructor's own name, or the name of an instance's
// inherited constructor.
func deriveClassName(o *object.Object, maxDepth int) string {
	if o.Callable() {
		if n := functionName(o); n != "" {
			return n
		}
		return UnknownClassName
	}
	if ctor, ok := o.LookupData(object.Name("constructor"), maxDepth); ok && ctor.IsCallable() {
		if n := functionName(ctor.Object()); n != "" {
			return n
		}
	}
	return UnknownClassName
}

// extendsName returns the name of the constructor of the prototype's parent,
// unless that parent is the root or its constructor is the root type.
func extendsName(proto *object.Object, maxDepth int) string {
	if proto == nil {
		return ""
	}
	parent := proto.Prototype()
	if parent == nil || parent.IsRoot() {
		return ""
	}
	ctor, ok := parent.LookupData(object.Name("constructor"), maxDepth)
	if !ok || !ctor.IsCallable() {
		return ""
	}
	name := functionName(ctor.Object())
	if name == "Object" {
		return ""
	}
	return name
}

// stringTag returns the first non-empty Symbol.toStringTag string data
// property found on the given chains. Getters are never invoked.
func stringTag(maxDepth int, starts ...*object.Object) string {
	key := object.SymbolKey(object.SymbolToStringTag)
	for _, s := range starts {
		if s == nil {
			continue
		}
		if v, ok := s.LookupData(key, maxDepth); ok && v.Kind() == object.KindString && v.Text() != "" {
			return v.Text()
		}
	}
	return ""
}

// functionName prefers the own name data property over the declared name.
func functionName(fn *object.Object) string {
	if d, ok := fn.OwnProperty(object.Name("name")); ok && d.HasValue && d.Value.Kind() == object.KindString {
		return d.Value.Text()
	}
	if f := fn.Function(); f != nil {
		return f.Name
	}
	return ""
}
