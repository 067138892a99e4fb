// Package descriptor collects property descriptors from an object's surfaces.
//
// Collection walks the ownership chain nearest-to-farthest and records each
// property name once: the first owner that declares a name wins, and farther
// declarations of the same name are shadowed.
package descriptor

import (
	"errors"
	"fmt"

	"github.com/artpar/shapegen/domain/object"
)

// Surface is a property bucket by declaration site.
type Surface uint8

const (
	Instance Surface = iota
	Prototype
	Static
)

// String returns the surface name.
func (s Surface) String() string {
	switch s {
	case Instance:
		return "instance"
	case Prototype:
		return "prototype"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("surface(%d)", uint8(s))
	}
}

// DefaultMaxDepth bounds chain walks. Real chains are a handful of links deep.
const DefaultMaxDepth = 64

// ErrMalformedChain is returned when a chain walk detects a cycle or exceeds
// the depth bound.
var ErrMalformedChain = errors.New("malformed ownership chain")

// ChainError describes where a chain walk gave up.
type ChainError struct {
	Depth int
	Cycle bool
}

// Error implements error.
func (e *ChainError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("%s: cycle at depth %d", ErrMalformedChain, e.Depth)
	}
	return fmt.Sprintf("%s: exceeded depth %d", ErrMalformedChain, e.Depth)
}

// Unwrap lets errors.Is match ErrMalformedChain.
func (e *ChainError) Unwrap() error { return ErrMalformedChain }

// staticMetadata lists language-mandated constructor fields that carry no schema information.
var staticMetadata = map[string]bool{
	"length":    true,
	"name":      true,
	"prototype": true,
	"arguments": true,
	"caller":    true,
}

// Options controls collection.
type Options struct {
	// IncludeInherited walks past the first prototype link.
	IncludeInherited bool

	// MaxDepth bounds the chain walk (DefaultMaxDepth when zero).
	MaxDepth int
}

// DefaultOptions returns the collection defaults.
func DefaultOptions() Options {
	return Options{IncludeInherited: true, MaxDepth: DefaultMaxDepth}
}

// Entry is a collected descriptor with the chain link that declared it.
type Entry struct {
	Key        object.Key
	Descriptor object.Descriptor
	Owner      *object.Object
}

// Set is an ordered, de-duplicated name -> descriptor mapping.
type Set struct {
	entries []Entry
	index   map[object.Key]int
}

func newSet() *Set {
	return &Set{index: make(map[object.Key]int)}
}

// add records e unless its key is already present. Reports whether it was added.
func (s *Set) add(e Entry) bool {
	if _, exists := s.index[e.Key]; exists {
		return false
	}
	s.index[e.Key] = len(s.entries)
	s.entries = append(s.entries, e)
	return true
}

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.entries) }

// Entries returns entries in collection order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry for key.
func (s *Set) Get(key object.Key) (Entry, bool) {
	i, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// PrototypeOf returns the first prototype link of a target: a constructor's
// prototype data property, or an instance's parent link. Nil when absent.
func PrototypeOf(target *object.Object) *object.Object {
	if target == nil {
		return nil
	}
	if target.Callable() {
		d, ok := target.OwnProperty(object.Name("prototype"))
		if !ok || !d.HasValue || !d.Value.IsObject() {
			return nil
		}
		return d.Value.Object()
	}
	return target.Prototype()
}

// Collect returns the descriptors visible on one surface of target.
// A callable target is a constructor and has no instance surface; any other
// object is an instance and has no static surface. Missing surfaces are empty.
func Collect(target *object.Object, surface Surface, opts Options) (*Set, error) {
	set := newSet()
	if target == nil {
		return set, nil
	}

	switch surface {
	case Instance:
		if target.Callable() {
			return set, nil
		}
		addOwn(set, target, nil)

	case Static:
		if !target.Callable() {
			return set, nil
		}
		addOwn(set, target, staticMetadata)

	case Prototype:
		if err := walk(set, PrototypeOf(target), opts); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown surface %d", surface)
	}

	return set, nil
}

// Chain returns the links from start up to, but excluding, the root.
func Chain(start *object.Object, maxDepth int) ([]*object.Object, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var links []*object.Object
	seen := make(map[*object.Object]bool)
	for link := start; link != nil && !link.IsRoot(); link = link.Prototype() {
		if seen[link] {
			return nil, &ChainError{Depth: len(links), Cycle: true}
		}
		if len(links) >= maxDepth {
			return nil, &ChainError{Depth: len(links)}
		}
		seen[link] = true
		links = append(links, link)
	}
	return links, nil
}

func walk(set *Set, start *object.Object, opts Options) error {
	if start == nil {
		return nil
	}
	if !opts.IncludeInherited {
		if !start.IsRoot() {
			addOwn(set, start, nil)
		}
		return nil
	}

	links, err := Chain(start, opts.MaxDepth)
	if err != nil {
		return err
	}
	for _, link := range links {
		addOwn(set, link, nil)
	}
	return nil
}

func addOwn(set *Set, owner *object.Object, exclude map[string]bool) {
	for _, p := range owner.OwnProperties() {
		if !p.Key.IsSymbol() && exclude[p.Key.Name()] {
			continue
		}
		set.add(Entry{Key: p.Key, Descriptor: p.Descriptor, Owner: owner})
	}
}
