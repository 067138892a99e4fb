// Package object models the reflective surface of a JavaScript object graph.
//
// It holds exactly what schema generation needs from a live heap: tagged values,
// property keys (names or symbols), property descriptors, and objects linked by
// their prototype. Nothing here evaluates code; getters and functions are opaque
// objects that can be inspected but never invoked, with the single exception of
// the guarded no-argument construct hook on constructors.
package object

import "fmt"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSymbol
	KindBigInt
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindBigInt:
		return "bigint"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a closed tagged union over the language's value kinds.
// The zero Value is undefined.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	sym  *Symbol
	obj  *Object
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// BigInt returns a bigint value from its decimal digits.
func BigInt(digits string) Value { return Value{kind: KindBigInt, str: digits} }

// SymbolValue wraps a symbol.
func SymbolValue(s *Symbol) Value {
	if s == nil {
		return Undefined()
	}
	return Value{kind: KindSymbol, sym: s}
}

// ObjectValue wraps an object. A nil object yields null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsObject reports whether v holds an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsCallable reports whether v holds a callable object.
func (v Value) IsCallable() bool { return v.kind == KindObject && v.obj.Callable() }

// Boolean returns the boolean payload (false for other kinds).
func (v Value) Boolean() bool { return v.b }

// Float returns the number payload (0 for other kinds).
func (v Value) Float() float64 { return v.num }

// Text returns the string payload, or the decimal digits of a bigint.
func (v Value) Text() string { return v.str }

// Symbol returns the symbol payload, or nil.
func (v Value) Symbol() *Symbol { return v.sym }

// Object returns the object payload, or nil.
func (v Value) Object() *Object { return v.obj }

// Symbol is a unique property key with a description.
// Identity is pointer identity; two symbols with the same description differ.
type Symbol struct {
	description string
}

// NewSymbol creates a fresh symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the symbol description.
func (s *Symbol) Description() string { return s.description }

// String returns the default textual conversion, e.g. "Symbol(Symbol.iterator)".
func (s *Symbol) String() string { return "Symbol(" + s.description + ")" }

// Well-known symbols shared by every realm.
var (
	SymbolToStringTag   = NewSymbol("Symbol.toStringTag")
	SymbolIterator      = NewSymbol("Symbol.iterator")
	SymbolAsyncIterator = NewSymbol("Symbol.asyncIterator")
	SymbolHasInstance   = NewSymbol("Symbol.hasInstance")
	SymbolToPrimitive   = NewSymbol("Symbol.toPrimitive")
	SymbolUnscopables   = NewSymbol("Symbol.unscopables")
	SymbolSpecies       = NewSymbol("Symbol.species")
)

var wellKnown = map[string]*Symbol{
	SymbolToStringTag.description:   SymbolToStringTag,
	SymbolIterator.description:      SymbolIterator,
	SymbolAsyncIterator.description: SymbolAsyncIterator,
	SymbolHasInstance.description:   SymbolHasInstance,
	SymbolToPrimitive.description:   SymbolToPrimitive,
	SymbolUnscopables.description:   SymbolUnscopables,
	SymbolSpecies.description:       SymbolSpecies,
}

// WellKnownSymbol looks up a well-known symbol by description ("Symbol.iterator").
func WellKnownSymbol(description string) (*Symbol, bool) {
	s, ok := wellKnown[description]
	return s, ok
}

// Key is a property key: either a string name or a symbol.
// Keys are comparable and usable as map keys.
type Key struct {
	name string
	sym  *Symbol
}

// Name returns a string key.
func Name(name string) Key { return Key{name: name} }

// SymbolKey returns a symbol key.
func SymbolKey(s *Symbol) Key { return Key{sym: s} }

// IsSymbol reports whether the key is a symbol.
func (k Key) IsSymbol() bool { return k.sym != nil }

// Symbol returns the symbol of a symbol key, or nil.
func (k Key) Symbol() *Symbol { return k.sym }

// Name returns the string of a name key; empty for symbol keys.
func (k Key) Name() string { return k.name }

// String renders the key for display: names verbatim, symbols as "[Symbol.iterator]".
func (k Key) String() string {
	if k.sym != nil {
		return "[" + k.sym.description + "]"
	}
	return k.name
}
