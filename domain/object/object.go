package object

import "errors"

// ErrIllegalConstructor is returned by construct hooks that reject construction outright.
var ErrIllegalConstructor = errors.New("illegal constructor")

// Exception is an error thrown by the object graph, carrying the
// language-level error name (TypeError, RangeError, ...) and message.
type Exception struct {
	Name    string
	Message string
}

// Error implements error.
func (e *Exception) Error() string {
	switch {
	case e.Name == "":
		return e.Message
	case e.Message == "":
		return e.Name
	default:
		return e.Name + ": " + e.Message
	}
}

// ConstructFunc is invoked for a no-argument construction.
// It returns nil when construction succeeds.
type ConstructFunc func() error

// MaxFunctionLength is the largest declared arity a function may carry.
const MaxFunctionLength = 1024

// Function carries the metadata of a callable object.
type Function struct {
	// Name is the declared function name.
	Name string

	// Length is the declared arity.
	Length int

	// Construct overrides no-argument construction. Nil constructs successfully.
	Construct ConstructFunc

	// NotConstructor marks callables without a construct behavior (methods, arrows).
	NotConstructor bool
}

// Arity returns Length clamped to [0, MaxFunctionLength].
func (f *Function) Arity() int {
	switch {
	case f.Length < 0:
		return 0
	case f.Length > MaxFunctionLength:
		return MaxFunctionLength
	default:
		return f.Length
	}
}

// Descriptor is the metadata record attached to a declared property.
//
// Flags are tri-state: a nil flag is absent and reads as true downstream.
type Descriptor struct {
	Value    Value
	HasValue bool

	Get *Object
	Set *Object

	Writable     *bool
	Enumerable   *bool
	Configurable *bool
}

// IsAccessor reports whether a getter or setter is present.
func (d Descriptor) IsAccessor() bool {
	return d.Get != nil || d.Set != nil
}

// Flag returns a pointer to b, for descriptor literals.
func Flag(b bool) *bool { return &b }

// DataDescriptor builds a data descriptor with all flags present.
func DataDescriptor(v Value, writable, enumerable, configurable bool) Descriptor {
	return Descriptor{
		Value:        v,
		HasValue:     true,
		Writable:     Flag(writable),
		Enumerable:   Flag(enumerable),
		Configurable: Flag(configurable),
	}
}

// AccessorDescriptor builds an accessor descriptor; writable is absent.
func AccessorDescriptor(get, set *Object, enumerable, configurable bool) Descriptor {
	return Descriptor{
		Get:          get,
		Set:          set,
		Enumerable:   Flag(enumerable),
		Configurable: Flag(configurable),
	}
}

// Property pairs a key with its descriptor.
type Property struct {
	Key        Key
	Descriptor Descriptor
}

// Object is a node in the object graph.
type Object struct {
	class string
	proto *Object
	root  bool
	fn    *Function

	keys  []Key
	props map[Key]Descriptor
}

// New creates an ordinary object with the given class tag and prototype.
func New(class string, proto *Object) *Object {
	if class == "" {
		class = "Object"
	}
	return &Object{
		class: class,
		proto: proto,
		props: make(map[Key]Descriptor),
	}
}

// NewCallable creates a callable object. No own properties are defined;
// see Realm.NewFunction for a function with length and name.
func NewCallable(proto *Object, fn Function) *Object {
	o := New("Function", proto)
	o.fn = &fn
	return o
}

// Class returns the class tag (Object, Function, Array, Promise, ...).
func (o *Object) Class() string { return o.class }

// Prototype returns the parent link, or nil at the end of the chain.
func (o *Object) Prototype() *Object { return o.proto }

// SetPrototype replaces the parent link. No cycle check is made here;
// chain walkers bound their own traversal.
func (o *Object) SetPrototype(p *Object) { o.proto = p }

// IsRoot reports whether o is the universal root prototype.
func (o *Object) IsRoot() bool { return o.root }

// Callable reports whether o is a function.
func (o *Object) Callable() bool { return o != nil && o.fn != nil }

// Function returns the callable metadata, or nil.
func (o *Object) Function() *Function { return o.fn }

// Define adds or replaces an own property. Replacing keeps the original
// declaration position.
func (o *Object) Define(key Key, d Descriptor) {
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = d
}

// DefineMethod defines a non-enumerable, writable, configurable data property.
func (o *Object) DefineMethod(key Key, fn *Object) {
	o.Define(key, DataDescriptor(ObjectValue(fn), true, false, true))
}

// OwnProperty returns the own descriptor for key.
func (o *Object) OwnProperty(key Key) (Descriptor, bool) {
	d, ok := o.props[key]
	return d, ok
}

// OwnKeys returns own keys in declaration order.
func (o *Object) OwnKeys() []Key {
	keys := make([]Key, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// OwnProperties returns own properties in declaration order.
func (o *Object) OwnProperties() []Property {
	props := make([]Property, 0, len(o.keys))
	for _, k := range o.keys {
		props = append(props, Property{Key: k, Descriptor: o.props[k]})
	}
	return props
}

// Construct performs a no-argument construction through the construct hook.
// Callers that face untrusted graphs must guard against panics.
func (o *Object) Construct() error {
	if o.fn == nil || o.fn.NotConstructor {
		name := "object"
		if o.fn != nil && o.fn.Name != "" {
			name = o.fn.Name
		}
		return &Exception{Name: "TypeError", Message: name + " is not a constructor"}
	}
	if o.fn.Construct == nil {
		return nil
	}
	return o.fn.Construct()
}

// LookupData walks the chain from o and returns the value of the first data
// property named key. An accessor found first ends the search unsuccessfully;
// getters are never invoked. The walk stops after maxDepth links.
func (o *Object) LookupData(key Key, maxDepth int) (Value, bool) {
	for link, depth := o, 0; link != nil && depth < maxDepth; link, depth = link.proto, depth+1 {
		d, ok := link.props[key]
		if !ok {
			continue
		}
		if d.IsAccessor() || !d.HasValue {
			return Undefined(), false
		}
		return d.Value, true
	}
	return Undefined(), false
}

// MaxElements bounds the number of elements Elements returns.
const MaxElements = 10000

// Elements returns the index properties 0..length-1 of an array-like object,
// truncated to MaxElements. Missing indexes and accessors read as undefined.
// Only own index properties are visited, so the declared length never drives
// more than MaxElements of allocation.
func (o *Object) Elements() []Value {
	lv, ok := o.props[Name("length")]
	if !ok || lv.Value.Kind() != KindNumber {
		return nil
	}
	length := lv.Value.Float()
	if !(length > 0) {
		return nil
	}
	n := MaxElements
	if length < MaxElements {
		n = int(length)
	}

	elems := make([]Value, n)
	for _, k := range o.keys {
		i, ok := arrayIndex(k)
		if !ok || i >= n {
			continue
		}
		if d := o.props[k]; d.HasValue {
			elems[i] = d.Value
		}
	}
	return elems
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(k Key) (int, bool) {
	if k.IsSymbol() {
		return 0, false
	}
	s := k.Name()
	if s == "" || len(s) > 9 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	i := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		i = i*10 + int(c-'0')
	}
	return i, true
}
