// Package construct probes whether a constructor accepts no-argument construction.
package construct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/shapegen/domain/object"
)

// Status is the outcome of a construction probe.
type Status uint8

const (
	// Constructed means construction with no arguments succeeded.
	Constructed Status = iota

	// Illegal means the target rejected construction with a known signal.
	Illegal

	// Failed means construction raised something else.
	Failed

	// NotApplicable means the target is an instance, not a constructor.
	NotApplicable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Illegal:
		return "illegal"
	case Failed:
		return "failed"
	case NotApplicable:
		return "not_applicable"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Outcome is a probe result. Detail holds the failure text for Failed.
type Outcome struct {
	Status Status
	Detail string
}

// Constructible reports whether a constructor binding should be emitted.
func (o Outcome) Constructible() bool { return o.Status == Constructed }

// Signal is a known illegal-construction condition: an exception name and a
// message fragment. An empty Name matches any exception name.
type Signal struct {
	Name     string
	Contains string
}

// Signals catalogs the illegal-construction conditions raised by browser engines.
var Signals = []Signal{
	{Name: "TypeError", Contains: "Illegal constructor"},
	{Name: "TypeError", Contains: "is not a constructor"},
	{Name: "TypeError", Contains: "Illegal invocation"},
}

// IsIllegalConstruction reports whether err is a cataloged illegal-construction signal.
func IsIllegalConstruction(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, object.ErrIllegalConstructor) {
		return true
	}

	var exc *object.Exception
	if !errors.As(err, &exc) {
		return false
	}
	for _, s := range Signals {
		if s.Name != "" && s.Name != exc.Name {
			continue
		}
		if strings.Contains(exc.Message, s.Contains) {
			return true
		}
	}
	return false
}

// Probe invokes ctor with no arguments inside a guard. Panics raised by the
// construct hook are reported as Failed.
func Probe(ctor *object.Object) (out Outcome) {
	if ctor == nil || !ctor.Callable() {
		return Outcome{Status: NotApplicable}
	}

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Status: Failed, Detail: fmt.Sprint(r)}
		}
	}()

	err := ctor.Construct()
	switch {
	case err == nil:
		return Outcome{Status: Constructed}
	case IsIllegalConstruction(err):
		return Outcome{Status: Illegal}
	default:
		return Outcome{Status: Failed, Detail: failureText(err)}
	}
}

// failureText prefers the bare message of an exception, like the message
// property of a thrown error.
func failureText(err error) string {
	var exc *object.Exception
	if errors.As(err, &exc) && exc.Message != "" {
		return exc.Message
	}
	return err.Error()
}
