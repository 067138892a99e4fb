package schema

import (
	"time"

	"github.com/artpar/shapegen/domain/classify"
	"github.com/artpar/shapegen/domain/construct"
)

// Model is the classified shape of one target.
type Model struct {
	// GeneratedAt is stamped into the header.
	GeneratedAt time.Time

	// Extends names the nearest ancestor constructor. Empty renders null.
	Extends string

	// ToStringTag is the declared string tag. Empty falls back to the type name.
	ToStringTag string

	// Constructor is the outcome of the construction probe.
	Constructor construct.Outcome

	// Member lists per surface, in collection order, ignored keys removed.
	Instance  []classify.Property
	Prototype []classify.Property
	Static    []classify.Property
}

// Summary counts the members of each document section.
type Summary struct {
	InstanceProperties  int `json:"instanceProperties" yaml:"instanceProperties"`
	PrototypeProperties int `json:"prototypeProperties" yaml:"prototypeProperties"`
	PrototypeMethods    int `json:"prototypeMethods" yaml:"prototypeMethods"`
	StaticProperties    int `json:"staticProperties" yaml:"staticProperties"`
	StaticMethods       int `json:"staticMethods" yaml:"staticMethods"`
}

// Summary counts the model's members by section.
func (m Model) Summary() Summary {
	protoProps, protoMethods := classify.Split(m.Prototype)
	staticProps, staticMethods := classify.Split(m.Static)
	return Summary{
		InstanceProperties:  len(m.Instance),
		PrototypeProperties: len(protoProps),
		PrototypeMethods:    len(protoMethods),
		StaticProperties:    len(staticProps),
		StaticMethods:       len(staticMethods),
	}
}

// Total returns the number of members across all sections.
func (s Summary) Total() int {
	return s.InstanceProperties + s.PrototypeProperties + s.PrototypeMethods + s.StaticProperties + s.StaticMethods
}

// SummaryColumns is the column order of Summary records.
var SummaryColumns = []string{
	"class_name",
	"instance_properties",
	"prototype_properties",
	"prototype_methods",
	"static_properties",
	"static_methods",
}

// Record returns the summary as a formatter record.
func (s Summary) Record(className string) map[string]any {
	return map[string]any{
		"class_name":           className,
		"instance_properties":  s.InstanceProperties,
		"prototype_properties": s.PrototypeProperties,
		"prototype_methods":    s.PrototypeMethods,
		"static_properties":    s.StaticProperties,
		"static_methods":       s.StaticMethods,
	}
}
