package descriptor

import (
	"errors"
	"testing"

	"github.com/artpar/shapegen/domain/object"
)

func keysOf(s *Set) []string {
	var out []string
	for _, e := range s.Entries() {
		out = append(out, e.Key.String())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Prototype surface
// -----------------------------------------------------------------------------

func TestCollect_PrototypeWalksChainNearestFirst(t *testing.T) {
	r := object.NewRealm()
	baseCtor, baseProto := r.NewClass("Node", 0, nil)
	baseProto.DefineMethod(object.Name("appendChild"), r.NewMethod("appendChild", 1))
	baseProto.DefineMethod(object.Name("shared"), r.NewMethod("shared", 0))

	ctor, proto := r.NewClass("Element", 0, baseCtor)
	proto.DefineMethod(object.Name("shared"), r.NewMethod("shared", 2))
	proto.DefineMethod(object.Name("remove"), r.NewMethod("remove", 0))

	set, err := Collect(ctor, Prototype, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	want := []string{"constructor", "shared", "remove", "appendChild"}
	if got := keysOf(set); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	e, ok := set.Get(object.Name("shared"))
	if !ok {
		t.Fatal("shared not collected")
	}
	if e.Owner != proto {
		t.Error("shared should be owned by the nearer link")
	}
	if e.Descriptor.Value.Object().Function().Length != 2 {
		t.Error("shared should be the nearer declaration")
	}
}

func TestCollect_PrototypeStopsAtRoot(t *testing.T) {
	r := object.NewRealm()
	ctor, _ := r.NewClass("Location", 0, nil)

	set, err := Collect(ctor, Prototype, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if _, ok := set.Get(object.Name("hasOwnProperty")); ok {
		t.Error("root members should not be collected")
	}
}

func TestCollect_PrototypeWithoutInherited(t *testing.T) {
	r := object.NewRealm()
	baseCtor, baseProto := r.NewClass("Node", 0, nil)
	baseProto.DefineMethod(object.Name("appendChild"), r.NewMethod("appendChild", 1))
	ctor, _ := r.NewClass("Element", 0, baseCtor)

	set, err := Collect(ctor, Prototype, Options{IncludeInherited: false})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if _, ok := set.Get(object.Name("appendChild")); ok {
		t.Error("inherited member collected with IncludeInherited=false")
	}
}

func TestCollect_PrototypeOfInstance(t *testing.T) {
	r := object.NewRealm()
	_, proto := r.NewClass("Window", 0, nil)
	proto.DefineMethod(object.Name("alert"), r.NewMethod("alert", 1))

	win := object.New("Object", proto)
	win.Define(object.Name("alert"), object.DataDescriptor(object.Number(1), true, true, true))

	set, err := Collect(win, Prototype, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	e, ok := set.Get(object.Name("alert"))
	if !ok || !e.Descriptor.Value.IsCallable() {
		t.Error("prototype surface should hold the prototype declaration")
	}

	inst, err := Collect(win, Instance, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	e, ok = inst.Get(object.Name("alert"))
	if !ok || e.Descriptor.Value.Kind() != object.KindNumber {
		t.Error("instance surface should hold the own declaration, unaffected by the chain")
	}
}

func TestCollect_CycleFailsWithMalformedChain(t *testing.T) {
	a := object.New("Object", nil)
	b := object.New("Object", a)
	a.SetPrototype(b)
	inst := object.New("Object", a)

	_, err := Collect(inst, Prototype, DefaultOptions())
	if !errors.Is(err, ErrMalformedChain) {
		t.Fatalf("expected ErrMalformedChain, got %v", err)
	}
	var ce *ChainError
	if !errors.As(err, &ce) || !ce.Cycle {
		t.Errorf("expected cycle ChainError, got %v", err)
	}
}

func TestCollect_DepthBound(t *testing.T) {
	var link *object.Object
	for i := 0; i < 10; i++ {
		link = object.New("Object", link)
	}
	inst := object.New("Object", link)

	_, err := Collect(inst, Prototype, Options{IncludeInherited: true, MaxDepth: 5})
	var ce *ChainError
	if !errors.As(err, &ce) || ce.Cycle || ce.Depth != 5 {
		t.Fatalf("expected depth ChainError at 5, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Instance and static surfaces
// -----------------------------------------------------------------------------

func TestCollect_StaticExcludesMetadata(t *testing.T) {
	r := object.NewRealm()
	ctor, _ := r.NewClass("URL", 1, nil)
	ctor.DefineMethod(object.Name("canParse"), r.NewMethod("canParse", 1))
	ctor.Define(object.Name("caller"), object.DataDescriptor(object.Null(), false, false, true))

	set, err := Collect(ctor, Static, DefaultOptions())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	want := []string{"canParse"}
	if got := keysOf(set); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCollect_SurfacesByTargetKind(t *testing.T) {
	r := object.NewRealm()
	ctor, _ := r.NewClass("Foo", 0, nil)
	ctor.Define(object.Name("x"), object.DataDescriptor(object.Number(1), true, true, true))

	set, _ := Collect(ctor, Instance, DefaultOptions())
	if set.Len() != 0 {
		t.Error("constructor target should have no instance surface")
	}

	inst := r.NewObject()
	inst.Define(object.Name("x"), object.DataDescriptor(object.Number(1), true, true, true))
	set, _ = Collect(inst, Static, DefaultOptions())
	if set.Len() != 0 {
		t.Error("instance target should have no static surface")
	}
}

func TestPrototypeOf(t *testing.T) {
	r := object.NewRealm()
	ctor, proto := r.NewClass("Foo", 0, nil)
	if PrototypeOf(ctor) != proto {
		t.Error("constructor prototype should come from its prototype property")
	}
	if PrototypeOf(r.NewMethod("arrow", 0)) != nil {
		t.Error("function without prototype property should have no prototype surface")
	}
	inst := object.New("Object", proto)
	if PrototypeOf(inst) != proto {
		t.Error("instance prototype should be its parent link")
	}
}

func TestSurface_String(t *testing.T) {
	if Instance.String() != "instance" || Prototype.String() != "prototype" || Static.String() != "static" {
		t.Error("unexpected surface names")
	}
}
