package schema

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/artpar/shapegen/core/convention"
	"github.com/artpar/shapegen/core/formatter"
	"github.com/artpar/shapegen/domain/classify"
	"github.com/artpar/shapegen/domain/construct"
	"github.com/artpar/shapegen/domain/object"
)

// Section names in document order.
const (
	SectionHeader              = "header"
	SectionIdentity            = "identity"
	SectionInheritance         = "inheritance"
	SectionConstructor         = "constructor"
	SectionInternal            = "internal"
	SectionInstanceProperties  = "instanceProperties"
	SectionPrototypeProperties = "prototypeProperties"
	SectionPrototypeMethods    = "prototypeMethods"
	SectionStaticProperties    = "staticProperties"
	SectionStaticMethods       = "staticMethods"
	SectionOptions             = "options"
)

// IllegalConstructorMarker is emitted for targets that cannot be constructed.
const IllegalConstructorMarker = `throw: "Illegal constructor"`

const (
	ruleLine         = "# ============================================================================"
	returnTypeTODO   = "Any  # TODO: specify the return type"
	paramTypeTODO    = "Any  # TODO: specify the parameter type"
	classDescTODO    = `"TODO: add class description"`
	specLinkTODO     = `"TODO: add specification link"`
	propertyDescTODO = `"TODO: add property description"`
	methodDescTODO   = `"TODO: add method description"`
)

// Section is a named run of document lines.
type Section struct {
	Name  string
	Lines []string
}

// Document is a rendered schema as ordered sections.
type Document struct {
	TypeName string
	Sections []Section
}

// Text joins the sections with one blank line between them.
// The result ends with a newline.
func (d *Document) Text() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SectionNames returns the section names in order.
func (d *Document) SectionNames() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}

// Section returns the named section.
func (d *Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Render builds the document and returns its text.
// This is a PURE function.
func Render(m Model, typeName string, opts Options) string {
	return Build(m, typeName, opts).Text()
}

// Build assembles the document for a classified model.
// This is a PURE function.
func Build(m Model, typeName string, opts Options) *Document {
	r := renderer{typeName: typeName, opts: opts}
	d := &Document{TypeName: typeName}

	d.Sections = append(d.Sections,
		r.header(m.GeneratedAt),
		r.identity(),
		r.inheritance(m.Extends),
		r.constructor(m.Constructor),
		r.internal(m.ToStringTag),
	)

	protoProps, protoMethods := classify.Split(m.Prototype)
	staticProps, staticMethods := classify.Split(m.Static)

	for _, s := range []struct {
		name   string
		props  []classify.Property
		static bool
	}{
		{SectionInstanceProperties, m.Instance, false},
		{SectionPrototypeProperties, protoProps, false},
		{SectionPrototypeMethods, protoMethods, false},
		{SectionStaticProperties, staticProps, true},
		{SectionStaticMethods, staticMethods, true},
	} {
		if len(s.props) == 0 {
			continue
		}
		d.Sections = append(d.Sections, r.members(s.name, s.props, s.static))
	}

	d.Sections = append(d.Sections, Section{
		Name: SectionOptions,
		Lines: []string{
			"options:",
			"  freezePrototype: true",
			"  freezeInstance: false",
			"  enabled: true",
		},
	})
	return d
}

type renderer struct {
	typeName string
	opts     Options
}

func (r renderer) header(at time.Time) Section {
	return Section{
		Name: SectionHeader,
		Lines: []string{
			ruleLine,
			"# " + singleLine(r.typeName) + " Class Definition",
			generatedPrefix + at.UTC().Format(time.RFC3339),
			ruleLine,
		},
	}
}

func (r renderer) identity() Section {
	return Section{
		Name: SectionIdentity,
		Lines: []string{
			"className: " + Scalar(r.typeName),
			"kind: FunctionTemplate",
			"description: " + classDescTODO,
			"spec: " + specLinkTODO,
		},
	}
}

func (r renderer) inheritance(extends string) Section {
	parent := "null"
	if extends != "" {
		parent = Scalar(extends)
	}
	return Section{
		Name: SectionInheritance,
		Lines: []string{
			"extends: " + parent,
			"mixins: []",
		},
	}
}

func (r renderer) constructor(out construct.Outcome) Section {
	lines := []string{"constructor:"}
	switch out.Status {
	case construct.Constructed:
		if r.opts.GenerateCallbacks {
			lines = append(lines, "  callback: "+r.callback("", convention.RoleConstructor))
		}
		lines = append(lines, "  parameters: []")
	case construct.Failed:
		lines = append(lines, "  # Constructor threw: "+singleLine(out.Detail), "  "+IllegalConstructorMarker)
	default:
		lines = append(lines, "  "+IllegalConstructorMarker)
	}
	return Section{Name: SectionConstructor, Lines: lines}
}

func (r renderer) internal(tag string) Section {
	if tag == "" {
		tag = r.typeName
	}
	return Section{
		Name: SectionInternal,
		Lines: []string{
			"internal:",
			"  fieldCount: 1",
			"  toStringTag: " + Scalar(tag),
		},
	}
}

// members renders a property section. Items are separated by blank lines.
func (r renderer) members(name string, props []classify.Property, static bool) Section {
	lines := []string{name + ":"}
	for i, p := range props {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, r.member(p, static)...)
	}
	return Section{Name: name, Lines: lines}
}

func (r renderer) member(p classify.Property, static bool) []string {
	lines := []string{
		"  - name: " + Scalar(p.Key.String()),
		"    kind: " + p.Kind.String(),
		"    descriptor: " + flags(p.Flags),
	}

	base := convention.KeyName(p.Key)
	getter, setter, method := convention.RoleGetter, convention.RoleSetter, convention.RoleMethod
	if static {
		getter, setter, method = convention.RoleStaticGetter, convention.RoleStaticSetter, convention.RoleStaticMethod
	}

	description := propertyDescTODO
	switch p.Kind {
	case classify.Accessor:
		lines = append(lines, "    getter:")
		if r.opts.GenerateCallbacks {
			lines = append(lines, "      callback: "+r.callback(base, getter))
		}
		lines = append(lines, "      returnType: "+returnTypeTODO)
		if p.HasSetter {
			if r.opts.GenerateCallbacks {
				lines = append(lines, "    setter:", "      callback: "+r.callback(base, setter))
			} else {
				lines = append(lines, "    setter: {}")
			}
		}

	case classify.Method:
		if r.opts.GenerateCallbacks {
			lines = append(lines, "    callback: "+r.callback(base, method))
		}
		lines = append(lines, parameters(p.Arity)...)
		lines = append(lines,
			"    returnType: "+returnTypeTODO,
			"    length: "+strconv.Itoa(p.Arity),
		)
		description = methodDescTODO

	default:
		lines = append(lines,
			"    value:",
			"      type: "+formatter.TypeOf(p.Value),
			"      data: "+formatter.FormatValue(p.Value),
		)
	}

	return append(lines, "    description: "+description)
}

// callback renders a synthesized binding name as a scalar.
func (r renderer) callback(property string, role convention.Role) string {
	return Scalar(convention.Synthesize(r.typeName, property, role))
}

func parameters(arity int) []string {
	if arity <= 0 {
		return []string{"    parameters: []"}
	}
	arity = min(arity, object.MaxFunctionLength)
	lines := make([]string, 0, 1+2*arity)
	lines = append(lines, "    parameters:")
	for i := 0; i < arity; i++ {
		lines = append(lines,
			"      - name: arg"+strconv.Itoa(i),
			"        type: "+paramTypeTODO,
		)
	}
	return lines
}

func flags(f classify.Flags) string {
	return "{writable: " + strconv.FormatBool(f.Writable) +
		", enumerable: " + strconv.FormatBool(f.Enumerable) +
		", configurable: " + strconv.FormatBool(f.Configurable) + "}"
}

// reservedScalars read as non-strings when left bare.
var reservedScalars = map[string]bool{
	"null": true, "Null": true, "NULL": true, "~": true,
	"true": true, "True": true, "TRUE": true,
	"false": true, "False": true, "FALSE": true,
	"yes": true, "no": true, "on": true, "off": true,
}

// Scalar renders a name bare when it is a plain identifier and quoted
// otherwise. Names holding control characters or backslashes are escaped so
// the quoted scalar stays on one line.
func Scalar(s string) string {
	switch {
	case convention.IsIdentifier(s) && !reservedScalars[s]:
		return s
	case strings.ContainsFunc(s, needsEscape):
		return strconv.Quote(s)
	default:
		return formatter.Quote(s)
	}
}

func needsEscape(r rune) bool {
	return r == '\\' || unicode.IsControl(r)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const generatedPrefix = "# Generated at: "

// Equivalent reports whether two document texts differ at most in their
// generation timestamp.
func Equivalent(a, b string) bool {
	return stripGenerated(a) == stripGenerated(b)
}

func stripGenerated(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, generatedPrefix) {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
