package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/artpar/shapegen/domain/object"
)

// maxTagDepth bounds the toStringTag lookup when rendering plain objects.
const maxTagDepth = 64

// MaxDefaultStringVisits bounds how many array elements one default text
// conversion visits across all nesting levels. Elements past the budget
// contribute empty text.
const MaxDefaultStringVisits = 100000

// TypeOf returns the type tag of a value.
// This is a PURE function.
func TypeOf(v object.Value) string {
	switch v.Kind() {
	case object.KindNull:
		return "Null"
	case object.KindUndefined:
		return "Undefined"
	case object.KindBoolean:
		return "Boolean"
	case object.KindNumber:
		return "Number"
	case object.KindString:
		return "String"
	case object.KindSymbol:
		return "Symbol"
	case object.KindBigInt:
		return "BigInt"
	}

	o := v.Object()
	switch {
	case o.Callable():
		return "Function"
	case o.Class() == "Array":
		return "Array"
	case o.Class() == "Promise":
		return "Promise"
	default:
		return "Object"
	}
}

// FormatValue renders a value as a schema literal.
//
// Null, undefined, booleans and numbers are bare. Strings are double-quoted
// with embedded double quotes escaped and nothing else. Every other value is
// converted to its default text and quoted the same way.
// This is a PURE function.
func FormatValue(v object.Value) string {
	switch v.Kind() {
	case object.KindNull:
		return "null"
	case object.KindUndefined:
		return "undefined"
	case object.KindBoolean:
		return strconv.FormatBool(v.Boolean())
	case object.KindNumber:
		return NumberString(v.Float())
	case object.KindString:
		return Quote(v.Text())
	default:
		return Quote(DefaultString(v))
	}
}

// Quote wraps s in double quotes, escaping embedded double quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// NumberString formats n the way the language converts numbers to text:
// integral values without a fraction, exponent form outside [1e-6, 1e21).
func NumberString(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	s := strconv.FormatFloat(n, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

// DefaultString returns the default text conversion of a value.
func DefaultString(v object.Value) string {
	return defaultString(v, &textWalk{seen: make(map[*object.Object]bool), budget: MaxDefaultStringVisits})
}

// textWalk tracks arrays on the current path and the remaining element budget.
type textWalk struct {
	seen   map[*object.Object]bool
	budget int
}

func defaultString(v object.Value, w *textWalk) string {
	switch v.Kind() {
	case object.KindUndefined:
		return "undefined"
	case object.KindNull:
		return "null"
	case object.KindBoolean:
		return strconv.FormatBool(v.Boolean())
	case object.KindNumber:
		return NumberString(v.Float())
	case object.KindString:
		return v.Text()
	case object.KindSymbol:
		return v.Symbol().String()
	case object.KindBigInt:
		return v.Text()
	}

	o := v.Object()
	switch {
	case o.Callable():
		return "function " + o.Function().Name + "() { [native code] }"
	case o.Class() == "Array":
		return joinElements(o, w)
	}

	tag := "Object"
	if t, ok := o.LookupData(object.SymbolKey(object.SymbolToStringTag), maxTagDepth); ok && t.Kind() == object.KindString {
		tag = t.Text()
	} else if o.Class() == "Promise" {
		tag = "Promise"
	}
	return "[object " + tag + "]"
}

// joinElements renders array elements comma-separated. Null, undefined and
// arrays already being rendered contribute empty text.
func joinElements(arr *object.Object, w *textWalk) string {
	if w.seen[arr] {
		return ""
	}
	w.seen[arr] = true
	defer delete(w.seen, arr)

	elems := arr.Elements()
	parts := make([]string, len(elems))
	for i, e := range elems {
		if w.budget <= 0 {
			break
		}
		w.budget--
		if e.IsNull() || e.IsUndefined() {
			continue
		}
		parts[i] = defaultString(e, w)
	}
	return strings.Join(parts, ",")
}
