package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for documents that are not well formed.
var ErrInvalidDocument = errors.New("invalid schema document")

// ValidationError describes the first structural problem found.
type ValidationError struct {
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrInvalidDocument, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// topLevelKeys lists every top-level key in order and whether it is required.
var topLevelKeys = []struct {
	name     string
	required bool
}{
	{"className", true},
	{"kind", true},
	{"description", true},
	{"spec", true},
	{"extends", true},
	{"mixins", true},
	{"constructor", true},
	{"internal", true},
	{SectionInstanceProperties, false},
	{SectionPrototypeProperties, false},
	{SectionPrototypeMethods, false},
	{SectionStaticProperties, false},
	{SectionStaticMethods, false},
	{"options", true},
}

var memberSections = map[string]bool{
	SectionInstanceProperties:  true,
	SectionPrototypeProperties: true,
	SectionPrototypeMethods:    true,
	SectionStaticProperties:    true,
	SectionStaticMethods:       true,
}

// Validate checks that text parses and that its top-level keys appear in the
// fixed order. Member sections must be non-empty lists of named entries.
func Validate(text []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return &ValidationError{Message: "expected a single document"}
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return &ValidationError{Line: doc.Line, Message: "expected a mapping at top level"}
	}

	next := 0
	for i := 0; i < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]

		pos := -1
		for j := next; j < len(topLevelKeys); j++ {
			if topLevelKeys[j].name == key.Value {
				pos = j
				break
			}
			if topLevelKeys[j].required {
				return &ValidationError{Line: key.Line, Message: fmt.Sprintf("missing %q before %q", topLevelKeys[j].name, key.Value)}
			}
		}
		if pos < 0 {
			return &ValidationError{Line: key.Line, Message: fmt.Sprintf("unexpected key %q", key.Value)}
		}
		next = pos + 1

		if memberSections[key.Value] {
			if err := validateMembers(key.Value, val); err != nil {
				return err
			}
		}
	}

	for j := next; j < len(topLevelKeys); j++ {
		if topLevelKeys[j].required {
			return &ValidationError{Message: fmt.Sprintf("missing %q", topLevelKeys[j].name)}
		}
	}
	return nil
}

func validateMembers(section string, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return &ValidationError{Line: n.Line, Message: fmt.Sprintf("%s must be a non-empty list", section)}
	}
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return &ValidationError{Line: item.Line, Message: fmt.Sprintf("%s entries must be mappings", section)}
		}
		if len(item.Content) < 2 || item.Content[0].Value != "name" {
			return &ValidationError{Line: item.Line, Message: fmt.Sprintf("%s entry must start with name", section)}
		}
	}
	return nil
}
