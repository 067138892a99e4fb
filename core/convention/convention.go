// Package convention derives binding names from type and property names.
// Downstream binding generators depend on these names verbatim.
package convention

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/artpar/shapegen/domain/object"
)

// Role is the kind of binding a name is synthesized for.
type Role uint8

const (
	RoleConstructor Role = iota
	RoleGetter
	RoleSetter
	RoleMethod
	RoleStaticGetter
	RoleStaticSetter
	RoleStaticMethod
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleConstructor:
		return "Constructor"
	case RoleGetter:
		return "Getter"
	case RoleSetter:
		return "Setter"
	case RoleMethod:
		return "Method"
	case RoleStaticGetter:
		return "StaticGetter"
	case RoleStaticSetter:
		return "StaticSetter"
	case RoleStaticMethod:
		return "StaticMethod"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// IsStatic reports whether the role binds a constructor-level member.
func (r Role) IsStatic() bool {
	return r == RoleStaticGetter || r == RoleStaticSetter || r == RoleStaticMethod
}

// suffix returns the role suffix appended after the property part.
func (r Role) suffix() string {
	switch r {
	case RoleConstructor:
		return "Constructor"
	case RoleGetter, RoleStaticGetter:
		return "Getter"
	case RoleSetter, RoleStaticSetter:
		return "Setter"
	default:
		return ""
	}
}

// Synthesize derives a binding name.
//
// Instance and prototype roles capitalize the first character of the property
// name; static roles append it unchanged. The constructor role ignores the
// property name. No collision avoidance is applied: names differing only in
// the case of their first character may synthesize the same identifier.
// This is a PURE function.
func Synthesize(typeName, propertyName string, role Role) string {
	switch {
	case role == RoleConstructor:
		return typeName + role.suffix()
	case role.IsStatic():
		return typeName + propertyName + role.suffix()
	default:
		return typeName + Capitalize(propertyName) + role.suffix()
	}
}

// Capitalize upper-cases the first character of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// KeyName returns the name a key contributes to synthesis. Symbol keys use
// their description without the "Symbol." prefix, so [Symbol.iterator]
// contributes "iterator".
func KeyName(k object.Key) string {
	if k.IsSymbol() {
		return strings.TrimPrefix(k.Symbol().Description(), "Symbol.")
	}
	return k.Name()
}

// IsIdentifier reports whether s is a plain identifier: a letter, '_' or '$'
// followed by letters, digits, '_' or '$'.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
