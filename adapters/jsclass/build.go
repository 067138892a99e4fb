package jsclass

import (
	"fmt"

	"github.com/artpar/shapegen/domain/object"
)

type classState uint8

const (
	unvisited classState = iota
	visiting
	done
)

// classObjects holds what evaluating one class produced.
type classObjects struct {
	ctor   *object.Object
	proto  *object.Object
	throws *object.Exception
	fields []field
}

type builder struct {
	realm   *object.Realm
	defs    map[string]*classDef
	state   map[string]classState
	classes map[string]*classObjects
}

func build(defs []*classDef) (*object.Graph, error) {
	b := &builder{
		realm:   object.NewRealm(),
		defs:    make(map[string]*classDef, len(defs)),
		state:   make(map[string]classState, len(defs)),
		classes: make(map[string]*classObjects, len(defs)),
	}
	for _, d := range defs {
		b.defs[d.name] = d
	}

	g := object.NewGraph(b.realm)
	for _, d := range defs {
		c, err := b.declare(d.name)
		if err != nil {
			return nil, err
		}
		g.Bind(d.name, object.ObjectValue(c.ctor))
	}
	for _, d := range defs {
		c := b.classes[d.name]
		if c.throws != nil {
			continue
		}
		g.Bind(d.name+InstanceSuffix, object.ObjectValue(b.instance(c)))
	}
	return g, nil
}

// declare evaluates a class after its parent. Names with no declaration in
// the source become empty host classes.
func (b *builder) declare(name string) (*classObjects, error) {
	switch b.state[name] {
	case done:
		return b.classes[name], nil
	case visiting:
		return nil, fmt.Errorf("%w: %s", ErrInheritanceCycle, name)
	}

	def, ok := b.defs[name]
	if !ok {
		ctor, proto := b.realm.NewClass(name, 0, nil)
		c := &classObjects{ctor: ctor, proto: proto}
		b.classes[name] = c
		b.state[name] = done
		return c, nil
	}

	b.state[name] = visiting

	var parent *classObjects
	if def.extends != "" && def.extends != "null" && def.extends != "Object" {
		p, err := b.declare(def.extends)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", name, err)
		}
		parent = p
	}

	var parentCtor *object.Object
	if parent != nil {
		parentCtor = parent.ctor
	}
	ctor, proto := b.realm.NewClass(name, def.ctorLength, parentCtor)
	if def.extends == "null" {
		proto.SetPrototype(nil)
	}

	c := &classObjects{ctor: ctor, proto: proto, throws: def.throws}
	if parent != nil {
		if c.throws == nil {
			c.throws = parent.throws
		}
		c.fields = append(c.fields, parent.fields...)
	}
	c.fields = append(c.fields, def.fields...)

	if c.throws != nil {
		exc := *c.throws
		ctor.Function().Construct = func() error { return &exc }
	}

	for _, m := range def.members {
		target := proto
		if m.static {
			target = ctor
		}
		b.defineMember(target, m)
	}

	b.classes[name] = c
	b.state[name] = done
	return c, nil
}

func (b *builder) defineMember(target *object.Object, m member) {
	switch m.kind {
	case memberMethod:
		target.DefineMethod(m.key, b.realm.NewMethod(m.label, m.length))

	case memberGetter, memberSetter:
		d := object.AccessorDescriptor(nil, nil, false, true)
		if existing, ok := target.OwnProperty(m.key); ok && existing.IsAccessor() {
			d = existing
		}
		fn := b.realm.NewMethod(m.label, m.length)
		if m.kind == memberGetter {
			d.Get = fn
		} else {
			d.Set = fn
		}
		target.Define(m.key, d)

	case memberField:
		target.Define(m.key, object.DataDescriptor(b.value(m.value), true, true, true))
	}
}

// instance creates an object as no-argument construction would leave it:
// linked to the prototype and carrying every field of the class chain.
func (b *builder) instance(c *classObjects) *object.Object {
	o := object.New("Object", c.proto)
	for _, f := range c.fields {
		o.Define(f.key, object.DataDescriptor(b.value(f.value), true, true, true))
	}
	return o
}

func (b *builder) value(l literal) object.Value {
	switch l.kind {
	case litNull:
		return object.Null()
	case litBool:
		return object.Bool(l.b)
	case litNumber:
		return object.Number(l.num)
	case litBigInt:
		return object.BigInt(l.text)
	case litString:
		return object.String(l.text)
	case litArray:
		elems := make([]object.Value, len(l.elems))
		for i, e := range l.elems {
			elems[i] = b.value(e)
		}
		return object.ObjectValue(b.realm.NewArray(elems...))
	case litFunction:
		return object.ObjectValue(b.realm.NewMethod(l.text, l.length))
	case litPromise:
		return object.ObjectValue(b.realm.NewPromise())
	case litObject:
		return object.ObjectValue(b.realm.NewObject())
	default:
		return object.Undefined()
	}
}
