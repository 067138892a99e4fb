package object

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownTarget is returned when a graph has no target bound to a name.
var ErrUnknownTarget = errors.New("unknown target")

// Realm holds the intrinsic objects an object graph is built in.
type Realm struct {
	// ObjectPrototype is the universal root of every ordinary chain.
	ObjectPrototype *Object

	// FunctionPrototype is the parent of every function.
	FunctionPrototype *Object

	// Object is the Object constructor.
	Object *Object

	ArrayPrototype   *Object
	PromisePrototype *Object
}

// NewRealm creates a realm with the intrinsics populated the way a browser
// engine exposes them to reflection.
func NewRealm() *Realm {
	root := New("Object", nil)
	root.root = true

	fnProto := NewCallable(root, Function{Name: "", Length: 0, NotConstructor: true})

	r := &Realm{
		ObjectPrototype:   root,
		FunctionPrototype: fnProto,
	}

	r.Object = r.NewFunction("Object", 1)
	r.Object.Define(Name("prototype"), DataDescriptor(ObjectValue(root), false, false, false))

	root.DefineMethod(Name("constructor"), r.Object)
	for _, m := range []struct {
		name   string
		length int
	}{
		{"__defineGetter__", 2},
		{"__defineSetter__", 2},
		{"hasOwnProperty", 1},
		{"__lookupGetter__", 1},
		{"__lookupSetter__", 1},
		{"isPrototypeOf", 1},
		{"propertyIsEnumerable", 1},
		{"toString", 0},
		{"valueOf", 0},
	} {
		root.DefineMethod(Name(m.name), r.NewMethod(m.name, m.length))
	}
	root.Define(Name("__proto__"), AccessorDescriptor(
		r.NewMethod("get __proto__", 0),
		r.NewMethod("set __proto__", 1),
		false, true,
	))
	root.DefineMethod(Name("toLocaleString"), r.NewMethod("toLocaleString", 0))

	fnProto.Define(Name("length"), DataDescriptor(Number(0), false, false, true))
	fnProto.Define(Name("name"), DataDescriptor(String(""), false, false, true))
	fnProto.DefineMethod(Name("constructor"), r.NewFunction("Function", 1))
	fnProto.DefineMethod(Name("apply"), r.NewMethod("apply", 2))
	fnProto.DefineMethod(Name("bind"), r.NewMethod("bind", 1))
	fnProto.DefineMethod(Name("call"), r.NewMethod("call", 1))
	fnProto.DefineMethod(Name("toString"), r.NewMethod("toString", 0))
	fnProto.Define(SymbolKey(SymbolHasInstance), DataDescriptor(ObjectValue(r.NewMethod("[Symbol.hasInstance]", 1)), false, false, false))

	r.ArrayPrototype = r.newIntrinsicClass("Array", 1)
	r.PromisePrototype = r.newIntrinsicClass("Promise", 1)
	r.PromisePrototype.Define(SymbolKey(SymbolToStringTag), DataDescriptor(String("Promise"), false, false, true))

	return r
}

func (r *Realm) newIntrinsicClass(name string, length int) *Object {
	_, proto := r.NewClass(name, length, nil)
	proto.class = name
	return proto
}

// NewObject creates an ordinary object whose parent is the root.
func (r *Realm) NewObject() *Object {
	return New("Object", r.ObjectPrototype)
}

// NewFunction creates a constructible function with own length and name properties.
func (r *Realm) NewFunction(name string, length int) *Object {
	fn := NewCallable(r.FunctionPrototype, Function{Name: name, Length: length})
	fn.Define(Name("length"), DataDescriptor(Number(float64(length)), false, false, true))
	fn.Define(Name("name"), DataDescriptor(String(name), false, false, true))
	return fn
}

// NewMethod creates a non-constructible function (a method, getter or setter).
func (r *Realm) NewMethod(name string, length int) *Object {
	fn := r.NewFunction(name, length)
	fn.fn.NotConstructor = true
	return fn
}

// NewClass creates a constructor and its prototype object, linked both ways.
// A nil parent derives from the root; otherwise the constructor inherits from
// the parent constructor and the prototype from the parent's prototype.
func (r *Realm) NewClass(name string, length int, parent *Object) (ctor, proto *Object) {
	ctor = r.NewFunction(name, length)
	proto = r.NewObject()

	if parent != nil {
		ctor.SetPrototype(parent)
		if pv, ok := parent.OwnProperty(Name("prototype")); ok && pv.Value.IsObject() {
			proto.SetPrototype(pv.Value.Object())
		}
	}

	ctor.Define(Name("prototype"), DataDescriptor(ObjectValue(proto), false, false, false))
	proto.DefineMethod(Name("constructor"), ctor)
	return ctor, proto
}

// NewArray creates an array object from its elements.
func (r *Realm) NewArray(elems ...Value) *Object {
	a := New("Array", r.ArrayPrototype)
	for i, e := range elems {
		a.Define(Name(strconv.Itoa(i)), DataDescriptor(e, true, true, true))
	}
	a.Define(Name("length"), DataDescriptor(Number(float64(len(elems))), true, false, false))
	return a
}

// NewPromise creates a pending promise object.
func (r *Realm) NewPromise() *Object {
	return New("Promise", r.PromisePrototype)
}

// Intrinsic resolves an intrinsic reference such as "%Object.prototype%".
func (r *Realm) Intrinsic(ref string) (*Object, bool) {
	switch ref {
	case "%Object.prototype%":
		return r.ObjectPrototype, true
	case "%Function.prototype%":
		return r.FunctionPrototype, true
	case "%Object%":
		return r.Object, true
	case "%Array.prototype%":
		return r.ArrayPrototype, true
	case "%Promise.prototype%":
		return r.PromisePrototype, true
	default:
		return nil, false
	}
}

// Graph is a realm plus named entry points into it.
type Graph struct {
	Realm *Realm

	names   []string
	targets map[string]Value
}

// NewGraph creates an empty graph over realm r.
func NewGraph(r *Realm) *Graph {
	return &Graph{
		Realm:   r,
		targets: make(map[string]Value),
	}
}

// Bind names a target. Rebinding a name replaces its value and keeps its position.
func (g *Graph) Bind(name string, v Value) {
	if _, exists := g.targets[name]; !exists {
		g.names = append(g.names, name)
	}
	g.targets[name] = v
}

// Targets returns bound names in binding order.
func (g *Graph) Targets() []string {
	names := make([]string, len(g.names))
	copy(names, g.names)
	return names
}

// Resolve returns the target bound to name.
func (g *Graph) Resolve(name string) (Value, error) {
	v, ok := g.targets[name]
	if !ok {
		return Undefined(), fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return v, nil
}
