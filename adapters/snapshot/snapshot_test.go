package snapshot_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/artpar/shapegen/adapters/snapshot"
	"github.com/artpar/shapegen/domain/construct"
	"github.com/artpar/shapegen/domain/object"
)

func loadBrowser(t *testing.T) *object.Graph {
	t.Helper()
	g, err := snapshot.LoadFile("testdata/browser.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	return g
}

func resolveObject(t *testing.T, g *object.Graph, name string) *object.Object {
	t.Helper()
	v, err := g.Resolve(name)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}
	if !v.IsObject() {
		t.Fatalf("expected %q to be an object, got %s", name, v.Kind())
	}
	return v.Object()
}

func prototypeOf(t *testing.T, ctor *object.Object) *object.Object {
	t.Helper()
	d, ok := ctor.OwnProperty(object.Name("prototype"))
	if !ok || !d.Value.IsObject() {
		t.Fatal("constructor has no prototype object")
	}
	return d.Value.Object()
}

func TestLoadFile_Targets(t *testing.T) {
	g := loadBrowser(t)

	want := []string{"Location", "Element", "URL", "location"}
	got := g.Targets()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected targets %v, got %v", want, got)
	}
}

func TestLoadFile_Functions(t *testing.T) {
	g := loadBrowser(t)

	loc := resolveObject(t, g, "Location")
	if !loc.Callable() {
		t.Fatal("Location should be callable")
	}
	if loc.Prototype() != g.Realm.FunctionPrototype {
		t.Error("functions default to the function prototype")
	}
	if out := construct.Probe(loc); out.Status != construct.Illegal {
		t.Errorf("expected illegal constructor, got %s", out.Status)
	}

	url := resolveObject(t, g, "URL")
	if url.Function().Length != 1 {
		t.Errorf("expected length 1, got %d", url.Function().Length)
	}
	out := construct.Probe(url)
	if out.Status != construct.Failed {
		t.Fatalf("expected failed constructor, got %s", out.Status)
	}
	if !strings.Contains(out.Detail, "1 argument required") {
		t.Errorf("unexpected detail %q", out.Detail)
	}
}

func TestLoadFile_Accessors(t *testing.T) {
	g := loadBrowser(t)
	proto := prototypeOf(t, resolveObject(t, g, "Location"))

	href, ok := proto.OwnProperty(object.Name("href"))
	if !ok || href.Get == nil || href.Set == nil {
		t.Fatalf("expected href accessor pair, got %+v", href)
	}
	if href.Set.Function().Length != 1 {
		t.Error("setter length should be 1")
	}
	if href.Get.Function().NotConstructor != true {
		t.Error("inline functions are not constructors")
	}
	if href.Writable != nil {
		t.Error("accessors have no writable flag")
	}

	origin, _ := proto.OwnProperty(object.Name("origin"))
	if origin.Get == nil || origin.Set != nil {
		t.Error("origin should be getter-only")
	}
}

func TestLoadFile_Flags(t *testing.T) {
	g := loadBrowser(t)
	proto := prototypeOf(t, resolveObject(t, g, "Location"))

	tag, ok := proto.OwnProperty(object.SymbolKey(object.SymbolToStringTag))
	if !ok {
		t.Fatal("expected well-known symbol key")
	}
	if tag.Value.Text() != "Location" {
		t.Errorf("expected tag 'Location', got %q", tag.Value.Text())
	}
	if tag.Writable == nil || *tag.Writable {
		t.Error("expected writable false")
	}
	if tag.Configurable != nil {
		t.Error("unset flags stay absent")
	}
}

func TestLoadFile_Chains(t *testing.T) {
	g := loadBrowser(t)

	element := resolveObject(t, g, "Element")
	if element.Prototype() == nil || element.Prototype().Function().Name != "Node" {
		t.Error("Element should inherit from Node")
	}

	proto := prototypeOf(t, element)
	unscopables, _ := proto.OwnProperty(object.SymbolKey(object.SymbolUnscopables))
	if !unscopables.Value.IsObject() || unscopables.Value.Object().Prototype() != nil {
		t.Error("proto: null should produce a null-prototype object")
	}

	instance := resolveObject(t, g, "location")
	if instance.Prototype() != prototypeOf(t, resolveObject(t, g, "Location")) {
		t.Error("instance should link to Location.prototype")
	}
}

func TestLoadFile_Values(t *testing.T) {
	g := loadBrowser(t)
	proto := prototypeOf(t, resolveObject(t, g, "URL"))

	get := func(name string) object.Value {
		d, ok := proto.OwnProperty(object.Name(name))
		if !ok {
			t.Fatalf("missing property %q", name)
		}
		return d.Value
	}

	if v := get("maxSafe"); v.Kind() != object.KindBigInt || v.Text() != "9007199254740993" {
		t.Errorf("unexpected bigint %v", v)
	}
	if v := get("ratio"); v.Kind() != object.KindNumber || !math.IsNaN(v.Float()) {
		t.Errorf("expected NaN, got %v", v)
	}
	if v := get("missing"); !v.IsUndefined() {
		t.Errorf("expected undefined, got %s", v.Kind())
	}
	if v := get("ready"); !v.IsObject() || v.Object().Class() != "Promise" {
		t.Errorf("expected promise, got %v", v)
	}

	locProto := prototypeOf(t, resolveObject(t, g, "Location"))
	d, _ := locProto.OwnProperty(object.Name("ancestorOrigins"))
	if !d.Value.IsObject() || d.Value.Object().Class() != "Array" {
		t.Error("expected array value")
	}
}

func TestParse_JSON(t *testing.T) {
	data := `{
  "targets": [{"name": "Thing", "ref": "thing"}],
  "objects": [
    {"id": "thing", "properties": [
      {"key": "size", "value": 3, "writable": true},
      {"key": "tags", "value": {"array": ["a", null, true]}},
      {"symbol": "Symbol.iterator", "value": {"function": {"name": "[Symbol.iterator]"}}}
    ]}
  ]
}`
	g, err := snapshot.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	thing := resolveObject(t, g, "Thing")
	if thing.Prototype() != g.Realm.ObjectPrototype {
		t.Error("plain objects default to the root prototype")
	}
	size, _ := thing.OwnProperty(object.Name("size"))
	if size.Value.Float() != 3 {
		t.Errorf("expected 3, got %v", size.Value.Float())
	}
	tags, _ := thing.OwnProperty(object.Name("tags"))
	elems := tags.Value.Object().Elements()
	if len(elems) != 3 || elems[0].Text() != "a" || !elems[1].IsNull() || !elems[2].Boolean() {
		t.Errorf("unexpected array elements %v", elems)
	}
	if _, ok := thing.OwnProperty(object.SymbolKey(object.SymbolIterator)); !ok {
		t.Error("expected iterator symbol key")
	}
}

func TestParse_CustomSymbolsShared(t *testing.T) {
	data := `
targets: [{name: a, ref: a}, {name: b, ref: b}]
objects:
  - id: a
    properties: [{symbol: brand, value: 1}]
  - id: b
    properties: [{symbol: brand, value: 2}]
`
	g, err := snapshot.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a := resolveObject(t, g, "a").OwnKeys()[0]
	b := resolveObject(t, g, "b").OwnKeys()[0]
	if a != b {
		t.Error("same description should yield the same symbol within a snapshot")
	}
}

func TestParse_Intrinsics(t *testing.T) {
	data := `
targets: [{ref: dict}]
objects:
  - id: dict
    proto: "%Object.prototype%"
    properties:
      - key: ctor
        value: {ref: "%Object%"}
`
	g, err := snapshot.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dict := resolveObject(t, g, "dict")
	d, _ := dict.OwnProperty(object.Name("ctor"))
	if d.Value.Object() != g.Realm.Object {
		t.Error("expected the Object intrinsic")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
		path string
	}{
		{
			name: "unknown ref",
			data: "objects:\n  - id: a\n    proto: b\n",
			want: snapshot.ErrUnknownRef,
			path: "objects[0].proto",
		},
		{
			name: "duplicate id",
			data: "objects:\n  - id: a\n  - id: a\n",
			want: snapshot.ErrDuplicateID,
			path: "objects[1]",
		},
		{
			name: "missing id",
			data: "objects:\n  - class: Object\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].id",
		},
		{
			name: "bad value kind",
			data: "objects:\n  - id: a\n    properties:\n      - key: x\n        value: {date: today}\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].properties[0].value",
		},
		{
			name: "getter is not a function",
			data: "objects:\n  - id: a\n    properties:\n      - key: x\n        get: 1\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].properties[0].get",
		},
		{
			name: "value with accessor",
			data: "objects:\n  - id: a\n    properties:\n      - key: x\n        value: 1\n        get: {function: {}}\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].properties[0]",
		},
		{
			name: "no key",
			data: "objects:\n  - id: a\n    properties:\n      - value: 1\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].properties[0]",
		},
		{
			name: "unknown target ref",
			data: "targets:\n  - {name: x, ref: nope}\n",
			want: snapshot.ErrUnknownRef,
			path: "targets[0].ref",
		},
		{
			name: "unknown intrinsic",
			data: "objects:\n  - id: a\n    proto: \"%Map.prototype%\"\n",
			want: snapshot.ErrUnknownRef,
			path: "objects[0].proto",
		},
		{
			name: "negative function length",
			data: "objects:\n  - id: a\n    function: {name: A, length: -3}\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].function.length",
		},
		{
			name: "method length over limit",
			data: "objects:\n  - id: a\n    properties:\n      - key: f\n        value: {function: {name: f, length: 20000000}}\n",
			want: snapshot.ErrInvalidValue,
			path: "objects[0].properties[0].value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.Parse([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var se *snapshot.Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *snapshot.Error, got %T", err)
			}
			if se.Path != tt.path {
				t.Errorf("expected path %q, got %q", tt.path, se.Path)
			}
		})
	}
}

func TestParse_FunctionLengthAtLimit(t *testing.T) {
	data := fmt.Sprintf("objects:\n  - id: a\n    function: {name: A, length: %d}\ntargets:\n  - {name: A, ref: a}\n", object.MaxFunctionLength)
	g, err := snapshot.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := resolveObject(t, g, "A").Function().Length; got != object.MaxFunctionLength {
		t.Errorf("expected length %d, got %d", object.MaxFunctionLength, got)
	}
}

func TestParse_ArrayDeclaredLengthBounded(t *testing.T) {
	data := `
objects:
  - id: tags
    class: Array
    properties:
      - {key: length, value: 1e13, enumerable: false}
      - {key: "0", value: a}
  - id: holder
    properties:
      - {key: tags, value: {ref: tags}}
targets:
  - {name: holder, ref: holder}
`
	g, err := snapshot.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	holder := resolveObject(t, g, "holder")
	d, _ := holder.OwnProperty(object.Name("tags"))
	got := d.Value.Object().Elements()
	if len(got) != object.MaxElements {
		t.Fatalf("expected %d elements, got %d", object.MaxElements, len(got))
	}
	if got[0].Text() != "a" {
		t.Errorf("expected first element 'a', got %q", got[0].Text())
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := snapshot.Parse([]byte("objects:\n  - id: a\n    prototype: b\n"))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParse_Empty(t *testing.T) {
	g, err := snapshot.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(g.Targets()) != 0 {
		t.Error("expected no targets")
	}
}
