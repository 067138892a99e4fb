// Package snapshot loads serialized object graphs.
//
// A snapshot lists objects by id with their prototype link and own property
// descriptors, plus named targets pointing into the graph. JSON snapshots are
// accepted as well since JSON is a subset of the YAML grammar.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/artpar/shapegen/domain/object"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownRef is returned for references to undeclared objects.
	ErrUnknownRef = errors.New("unknown reference")

	// ErrDuplicateID is returned when two objects share an id.
	ErrDuplicateID = errors.New("duplicate object id")

	// ErrInvalidValue is returned for malformed value nodes.
	ErrInvalidValue = errors.New("invalid value")
)

// Error locates a snapshot problem.
type Error struct {
	Path string
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("snapshot: %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("snapshot: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type document struct {
	Targets []targetNode `yaml:"targets"`
	Objects []objectNode `yaml:"objects"`
}

type targetNode struct {
	Name string `yaml:"name"`
	Ref  string `yaml:"ref"`
}

type objectNode struct {
	ID         string         `yaml:"id"`
	Class      string         `yaml:"class"`
	Function   *functionNode  `yaml:"function"`
	Proto      yaml.Node      `yaml:"proto"`
	Properties []propertyNode `yaml:"properties"`
}

type functionNode struct {
	Name        string         `yaml:"name"`
	Length      int            `yaml:"length"`
	Constructor *bool          `yaml:"constructor"`
	Construct   *constructNode `yaml:"construct"`
}

type constructNode struct {
	Illegal bool   `yaml:"illegal"`
	Throws  string `yaml:"throws"`
	Message string `yaml:"message"`
}

type propertyNode struct {
	Key          string    `yaml:"key"`
	Symbol       string    `yaml:"symbol"`
	Value        yaml.Node `yaml:"value"`
	Get          yaml.Node `yaml:"get"`
	Set          yaml.Node `yaml:"set"`
	Writable     *bool     `yaml:"writable"`
	Enumerable   *bool     `yaml:"enumerable"`
	Configurable *bool     `yaml:"configurable"`
}

// LoadFile reads and parses a snapshot file.
func LoadFile(path string) (*object.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Load parses a snapshot from r.
func Load(r io.Reader) (*object.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse builds an object graph from snapshot bytes. Unknown fields are
// rejected.
func Parse(data []byte) (*object.Graph, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	b := &builder{
		graph:   object.NewGraph(object.NewRealm()),
		objects: make(map[string]*object.Object, len(doc.Objects)),
		symbols: make(map[string]*object.Symbol),
	}
	if err := b.build(doc); err != nil {
		return nil, err
	}
	return b.graph, nil
}

type builder struct {
	graph   *object.Graph
	objects map[string]*object.Object
	symbols map[string]*object.Symbol
}

func (b *builder) realm() *object.Realm { return b.graph.Realm }

// build declares every object first so that references may point forward.
func (b *builder) build(doc document) error {
	for i, on := range doc.Objects {
		path := fmt.Sprintf("objects[%d]", i)
		if on.ID == "" {
			return &Error{Path: path + ".id", Err: fmt.Errorf("%w: missing id", ErrInvalidValue)}
		}
		if _, exists := b.objects[on.ID]; exists {
			return &Error{Path: path, Err: fmt.Errorf("%w: %q", ErrDuplicateID, on.ID)}
		}
		if strings.HasPrefix(on.ID, "%") {
			return &Error{Path: path + ".id", Err: fmt.Errorf("%w: %q is reserved for intrinsics", ErrInvalidValue, on.ID)}
		}
		if on.Function != nil {
			if err := checkFunction(on.Function); err != nil {
				return &Error{Path: path + ".function.length", Err: err}
			}
		}
		b.objects[on.ID] = b.declare(on)
	}

	for i, on := range doc.Objects {
		if err := b.populate(fmt.Sprintf("objects[%d]", i), on); err != nil {
			return err
		}
	}

	for i, tn := range doc.Targets {
		path := fmt.Sprintf("targets[%d]", i)
		o, err := b.resolveRef(tn.Ref)
		if err != nil {
			return &Error{Path: path + ".ref", Err: err}
		}
		name := tn.Name
		if name == "" {
			name = tn.Ref
		}
		b.graph.Bind(name, object.ObjectValue(o))
	}
	return nil
}

func (b *builder) declare(on objectNode) *object.Object {
	if on.Function == nil {
		return object.New(on.Class, nil)
	}
	// Callable objects are always tagged Function; class is ignored.
	return b.function(on.Function, true)
}

// checkFunction rejects declared lengths outside [0, object.MaxFunctionLength].
func checkFunction(fn *functionNode) error {
	if fn.Length < 0 || fn.Length > object.MaxFunctionLength {
		return fmt.Errorf("%w: function length %d outside [0, %d]", ErrInvalidValue, fn.Length, object.MaxFunctionLength)
	}
	return nil
}

// function creates a function object. Top-level functions default to
// constructors; inline ones (getters, setters, method values) do not.
func (b *builder) function(fn *functionNode, defaultConstructor bool) *object.Object {
	isCtor := defaultConstructor
	if fn.Constructor != nil {
		isCtor = *fn.Constructor
	}

	var o *object.Object
	if isCtor {
		o = b.realm().NewFunction(fn.Name, fn.Length)
	} else {
		o = b.realm().NewMethod(fn.Name, fn.Length)
	}

	if c := fn.Construct; c != nil {
		switch {
		case c.Illegal:
			o.Function().Construct = func() error { return object.ErrIllegalConstructor }
		case c.Throws != "" || c.Message != "":
			exc := &object.Exception{Name: c.Throws, Message: c.Message}
			o.Function().Construct = func() error { return exc }
		}
	}
	return o
}

func (b *builder) populate(path string, on objectNode) error {
	o := b.objects[on.ID]

	switch {
	case on.Proto.Kind == 0:
		if on.Function != nil {
			o.SetPrototype(b.realm().FunctionPrototype)
		} else {
			o.SetPrototype(b.realm().ObjectPrototype)
		}
	case on.Proto.Tag == "!!null":
		o.SetPrototype(nil)
	case on.Proto.Kind == yaml.ScalarNode:
		p, err := b.resolveRef(on.Proto.Value)
		if err != nil {
			return &Error{Path: path + ".proto", Line: on.Proto.Line, Err: err}
		}
		o.SetPrototype(p)
	default:
		return &Error{Path: path + ".proto", Line: on.Proto.Line, Err: fmt.Errorf("%w: proto must be a reference or null", ErrInvalidValue)}
	}

	for i, pn := range on.Properties {
		ppath := fmt.Sprintf("%s.properties[%d]", path, i)
		key, err := b.key(pn)
		if err != nil {
			return &Error{Path: ppath, Err: err}
		}
		d, err := b.descriptor(ppath, pn)
		if err != nil {
			return err
		}
		o.Define(key, d)
	}
	return nil
}

func (b *builder) key(pn propertyNode) (object.Key, error) {
	switch {
	case pn.Key != "" && pn.Symbol != "":
		return object.Key{}, fmt.Errorf("%w: key and symbol are exclusive", ErrInvalidValue)
	case pn.Symbol != "":
		return object.SymbolKey(b.symbol(pn.Symbol)), nil
	case pn.Key != "":
		return object.Name(pn.Key), nil
	default:
		return object.Key{}, fmt.Errorf("%w: property needs a key or symbol", ErrInvalidValue)
	}
}

// symbol returns the well-known symbol with this description, or a symbol
// shared by every use of the description within the snapshot.
func (b *builder) symbol(desc string) *object.Symbol {
	if s, ok := object.WellKnownSymbol(desc); ok {
		return s
	}
	if s, ok := b.symbols[desc]; ok {
		return s
	}
	s := object.NewSymbol(desc)
	b.symbols[desc] = s
	return s
}

func (b *builder) descriptor(path string, pn propertyNode) (object.Descriptor, error) {
	if pn.Get.Kind != 0 || pn.Set.Kind != 0 {
		if pn.Value.Kind != 0 {
			return object.Descriptor{}, &Error{Path: path, Err: fmt.Errorf("%w: value and accessors are exclusive", ErrInvalidValue)}
		}
		get, err := b.accessor(path+".get", &pn.Get)
		if err != nil {
			return object.Descriptor{}, err
		}
		set, err := b.accessor(path+".set", &pn.Set)
		if err != nil {
			return object.Descriptor{}, err
		}
		return object.Descriptor{
			Get:          get,
			Set:          set,
			Enumerable:   pn.Enumerable,
			Configurable: pn.Configurable,
		}, nil
	}

	d := object.Descriptor{
		Writable:     pn.Writable,
		Enumerable:   pn.Enumerable,
		Configurable: pn.Configurable,
	}
	if pn.Value.Kind != 0 {
		v, err := b.value(path+".value", &pn.Value)
		if err != nil {
			return object.Descriptor{}, err
		}
		d.Value = v
		d.HasValue = true
	}
	return d, nil
}

// accessor resolves a getter or setter. Absent and null mean no function.
func (b *builder) accessor(path string, n *yaml.Node) (*object.Object, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil, nil
	}
	v, err := b.value(path, n)
	if err != nil {
		return nil, err
	}
	if !v.IsCallable() {
		return nil, &Error{Path: path, Line: n.Line, Err: fmt.Errorf("%w: accessor must be a function", ErrInvalidValue)}
	}
	return v.Object(), nil
}

func (b *builder) value(path string, n *yaml.Node) (object.Value, error) {
	fail := func(err error) (object.Value, error) {
		return object.Undefined(), &Error{Path: path, Line: n.Line, Err: err}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n, fail)
	case yaml.MappingNode:
	default:
		return fail(fmt.Errorf("%w: expected a scalar or a mapping", ErrInvalidValue))
	}

	if len(n.Content) != 2 {
		return fail(fmt.Errorf("%w: value mapping must have exactly one key", ErrInvalidValue))
	}
	kind, body := n.Content[0].Value, n.Content[1]

	switch kind {
	case "ref":
		o, err := b.resolveRef(body.Value)
		if err != nil {
			return fail(err)
		}
		return object.ObjectValue(o), nil

	case "function":
		var fn functionNode
		if err := body.Decode(&fn); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		if err := checkFunction(&fn); err != nil {
			return fail(err)
		}
		return object.ObjectValue(b.function(&fn, false)), nil

	case "undefined":
		return object.Undefined(), nil

	case "bigint":
		digits := strings.TrimSuffix(body.Value, "n")
		if _, ok := parseBigInt(digits); !ok {
			return fail(fmt.Errorf("%w: bad bigint %q", ErrInvalidValue, body.Value))
		}
		return object.BigInt(digits), nil

	case "number":
		f, err := parseNumber(body.Value)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		return object.Number(f), nil

	case "symbol":
		return object.SymbolValue(b.symbol(body.Value)), nil

	case "array":
		if body.Kind != yaml.SequenceNode {
			return fail(fmt.Errorf("%w: array must be a list", ErrInvalidValue))
		}
		elems := make([]object.Value, len(body.Content))
		for i, en := range body.Content {
			v, err := b.value(fmt.Sprintf("%s.array[%d]", path, i), en)
			if err != nil {
				return object.Undefined(), err
			}
			elems[i] = v
		}
		return object.ObjectValue(b.realm().NewArray(elems...)), nil

	case "promise":
		return object.ObjectValue(b.realm().NewPromise()), nil

	default:
		return fail(fmt.Errorf("%w: unknown value kind %q", ErrInvalidValue, kind))
	}
}

func scalar(n *yaml.Node, fail func(error) (object.Value, error)) (object.Value, error) {
	switch n.Tag {
	case "!!null":
		return object.Null(), nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		return object.Bool(v), nil
	case "!!int", "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		return object.Number(v), nil
	default:
		return object.String(n.Value), nil
	}
}

// parseNumber accepts decimal text plus NaN, Infinity and -Infinity.
func parseNumber(s string) (float64, error) {
	switch s {
	case "NaN":
		return strconv.ParseFloat("NaN", 64)
	case "Infinity":
		return strconv.ParseFloat("+Inf", 64)
	case "-Infinity":
		return strconv.ParseFloat("-Inf", 64)
	}
	return strconv.ParseFloat(s, 64)
}

func parseBigInt(s string) (string, bool) {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func (b *builder) resolveRef(ref string) (*object.Object, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnknownRef)
	}
	if strings.HasPrefix(ref, "%") {
		if o, ok := b.realm().Intrinsic(ref); ok {
			return o, nil
		}
		return nil, fmt.Errorf("%w: intrinsic %q", ErrUnknownRef, ref)
	}
	if o, ok := b.objects[ref]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRef, ref)
}
