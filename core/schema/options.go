package schema

import "github.com/artpar/shapegen/domain/descriptor"

// Options controls collection and rendering.
type Options struct {
	// IncludeInherited walks the whole prototype chain. When false only the
	// first prototype link is read.
	IncludeInherited bool

	// IncludeNonEnumerable keeps properties whose enumerable flag is false.
	IncludeNonEnumerable bool

	// GenerateCallbacks emits synthesized callback names.
	GenerateCallbacks bool

	// MaxChainDepth bounds the prototype walk.
	MaxChainDepth int
}

// DefaultOptions returns options with every feature enabled.
func DefaultOptions() Options {
	return Options{
		IncludeInherited:     true,
		IncludeNonEnumerable: true,
		GenerateCallbacks:    true,
		MaxChainDepth:        descriptor.DefaultMaxDepth,
	}
}

// CollectOptions returns the descriptor collection options.
func (o Options) CollectOptions() descriptor.Options {
	return descriptor.Options{
		IncludeInherited: o.IncludeInherited,
		MaxDepth:         o.MaxChainDepth,
	}
}
