package formatter

import (
	"math"
	"strings"
	"testing"

	"github.com/artpar/shapegen/domain/object"
)

func TestTypeOf(t *testing.T) {
	r := object.NewRealm()

	tests := []struct {
		name string
		v    object.Value
		want string
	}{
		{"null", object.Null(), "Null"},
		{"undefined", object.Undefined(), "Undefined"},
		{"bool", object.Bool(true), "Boolean"},
		{"number", object.Number(1), "Number"},
		{"string", object.String("s"), "String"},
		{"symbol", object.SymbolValue(object.SymbolIterator), "Symbol"},
		{"bigint", object.BigInt("10"), "BigInt"},
		{"function", object.ObjectValue(r.NewFunction("f", 0)), "Function"},
		{"array", object.ObjectValue(r.NewArray()), "Array"},
		{"promise", object.ObjectValue(r.NewPromise()), "Promise"},
		{"object", object.ObjectValue(r.NewObject()), "Object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.v); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	r := object.NewRealm()
	tagged := r.NewObject()
	tagged.Define(object.SymbolKey(object.SymbolToStringTag), object.DataDescriptor(object.String("DOMRect"), false, false, true))

	tests := []struct {
		name string
		v    object.Value
		want string
	}{
		{"null", object.Null(), "null"},
		{"undefined", object.Undefined(), "undefined"},
		{"true", object.Bool(true), "true"},
		{"false", object.Bool(false), "false"},
		{"int", object.Number(42), "42"},
		{"fraction", object.Number(0.5), "0.5"},
		{"string", object.String("plain"), `"plain"`},
		{"quoted string", object.String(`say "hi"`), `"say \"hi\""`},
		{"backslash untouched", object.String(`a\b`), `"a\b"`},
		{"symbol", object.SymbolValue(object.SymbolIterator), `"Symbol(Symbol.iterator)"`},
		{"bigint", object.BigInt("9007199254740993"), `"9007199254740993"`},
		{"function", object.ObjectValue(r.NewFunction("reload", 0)), `"function reload() { [native code] }"`},
		{"array", object.ObjectValue(r.NewArray(object.Number(1), object.String("a"), object.Null())), `"1,a,"`},
		{"promise", object.ObjectValue(r.NewPromise()), `"[object Promise]"`},
		{"object", object.ObjectValue(r.NewObject()), `"[object Object]"`},
		{"tagged object", object.ObjectValue(tagged), `"[object DOMRect]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.v); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFormatValue_SelfReferentialArray(t *testing.T) {
	r := object.NewRealm()
	arr := r.NewArray(object.Number(1))
	arr.Define(object.Name("1"), object.DataDescriptor(object.ObjectValue(arr), true, true, true))
	arr.Define(object.Name("length"), object.DataDescriptor(object.Number(2), true, false, false))

	if got := FormatValue(object.ObjectValue(arr)); got != `"1,"` {
		t.Errorf("expected cycle to render empty, got %s", got)
	}
}

func TestFormatValue_NestedArraysBounded(t *testing.T) {
	r := object.NewRealm()

	leaves := make([]object.Value, object.MaxElements)
	for i := range leaves {
		leaves[i] = object.String("x")
	}
	inner := object.ObjectValue(r.NewArray(leaves...))

	rows := make([]object.Value, object.MaxElements)
	for i := range rows {
		rows[i] = inner
	}
	outer := r.NewArray(rows...)

	got := DefaultString(object.ObjectValue(outer))
	if n := strings.Count(got, "x"); n > MaxDefaultStringVisits {
		t.Errorf("expected at most %d rendered elements, got %d", MaxDefaultStringVisits, n)
	}
	if !strings.HasPrefix(got, "x,x,x") {
		t.Errorf("expected leading elements to render, got %.20q", got)
	}
}

func TestFormatValue_HugeDeclaredLength(t *testing.T) {
	arr := object.New("Array", nil)
	arr.Define(object.Name("length"), object.DataDescriptor(object.Number(1e13), true, false, false))
	arr.Define(object.Name("0"), object.DataDescriptor(object.String("a"), true, true, true))

	got := FormatValue(object.ObjectValue(arr))
	if !strings.HasPrefix(got, `"a,`) {
		t.Errorf("expected first element, got %.20q", got)
	}
	if n := strings.Count(got, ","); n != object.MaxElements-1 {
		t.Errorf("expected %d separators, got %d", object.MaxElements-1, n)
	}
}

func TestNumberString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-3, "-3"},
		{3.14, "3.14"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberString(tt.in); got != tt.want {
			t.Errorf("NumberString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := Quote(`a"b"c`); got != `"a\"b\"c"` {
		t.Errorf("unexpected %s", got)
	}
	if got := Quote(""); got != `""` {
		t.Errorf("unexpected %s", got)
	}
}
