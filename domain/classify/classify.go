// Package classify turns collected descriptors into a closed set of property kinds.
//
// Classification reads descriptor shape only. Getters and function values are
// inspected as objects and never invoked.
package classify

import (
	"fmt"

	"github.com/artpar/shapegen/domain/descriptor"
	"github.com/artpar/shapegen/domain/object"
)

// Kind is the classification of a descriptor.
type Kind uint8

const (
	Ignored Kind = iota
	Data
	Accessor
	Method
)

// String returns the kind tag used in schema documents.
func (k Kind) String() string {
	switch k {
	case Ignored:
		return "Ignored"
	case Data:
		return "Data"
	case Accessor:
		return "Accessor"
	case Method:
		return "Method"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Flags are descriptor flags with absent flags resolved to true.
type Flags struct {
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// Property is a classified descriptor.
type Property struct {
	Key  object.Key
	Kind Kind

	// Value is set for Data and Method.
	Value object.Value

	// HasGetter and HasSetter are set for Accessor.
	HasGetter bool
	HasSetter bool

	// Arity is the declared length of a Method, clamped to
	// object.MaxFunctionLength.
	Arity int

	Flags Flags
}

// reservedName is the default-construction linkage.
const reservedName = "constructor"

// denyList holds structural and legacy members of the universal root.
var denyList = map[string]bool{
	"__proto__":            true,
	"__defineGetter__":     true,
	"__defineSetter__":     true,
	"__lookupGetter__":     true,
	"__lookupSetter__":     true,
	"hasOwnProperty":       true,
	"isPrototypeOf":        true,
	"propertyIsEnumerable": true,
	"toLocaleString":       true,
	"valueOf":              true,
}

// IsIgnored reports whether key is structural noise. Symbol keys are ignored
// except Symbol.toStringTag and Symbol.iterator.
func IsIgnored(key object.Key) bool {
	if key.IsSymbol() {
		s := key.Symbol()
		return s != object.SymbolToStringTag && s != object.SymbolIterator
	}
	name := key.Name()
	return name == reservedName || denyList[name]
}

// Classify determines the kind of a single descriptor.
// This is a PURE function.
func Classify(key object.Key, d object.Descriptor) Property {
	p := Property{
		Key:   key,
		Flags: resolveFlags(d),
	}

	switch {
	case IsIgnored(key):
		p.Kind = Ignored
	case d.IsAccessor():
		p.Kind = Accessor
		p.HasGetter = d.Get != nil
		p.HasSetter = d.Set != nil
	case d.HasValue && d.Value.IsCallable():
		p.Kind = Method
		p.Value = d.Value
		p.Arity = d.Value.Object().Function().Arity()
	default:
		// A descriptor without a value reads as undefined.
		p.Kind = Data
		p.Value = d.Value
	}

	return p
}

// Partition classifies entries in order and drops ignored ones. When
// includeNonEnumerable is false, properties whose enumerable flag is false are
// dropped as well.
func Partition(entries []descriptor.Entry, includeNonEnumerable bool) []Property {
	props := make([]Property, 0, len(entries))
	for _, e := range entries {
		p := Classify(e.Key, e.Descriptor)
		if p.Kind == Ignored {
			continue
		}
		if !includeNonEnumerable && !p.Flags.Enumerable {
			continue
		}
		props = append(props, p)
	}
	return props
}

// Split separates methods from the remaining properties, keeping order.
func Split(props []Property) (properties, methods []Property) {
	for _, p := range props {
		if p.Kind == Method {
			methods = append(methods, p)
		} else {
			properties = append(properties, p)
		}
	}
	return properties, methods
}

func resolveFlags(d object.Descriptor) Flags {
	return Flags{
		Writable:     flag(d.Writable),
		Enumerable:   flag(d.Enumerable),
		Configurable: flag(d.Configurable),
	}
}

func flag(b *bool) bool {
	return b == nil || *b
}
