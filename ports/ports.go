// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"time"

	"github.com/artpar/shapegen/domain/object"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Input Ports
// -----------------------------------------------------------------------------

// TargetSource resolves named targets in a loaded object graph.
type TargetSource interface {
	// Targets returns the declared target names in declaration order.
	Targets() []string

	// Resolve returns the value bound to name.
	// Unknown names fail with object.ErrUnknownTarget.
	Resolve(name string) (object.Value, error)
}

// Ensure the graph satisfies the port.
var _ TargetSource = (*object.Graph)(nil)

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// AnalysisRecorder receives generator measurements.
type AnalysisRecorder interface {
	// ObserveTarget records one analyzed target. result is "success" or "failure".
	ObserveTarget(result string, d time.Duration)

	// ObserveSections records how many members each document section received.
	ObserveSections(counts map[string]int)

	// ObserveConstructor records a construction probe outcome.
	ObserveConstructor(status string)

	// ObserveBatch records a finished batch.
	ObserveBatch(targets, failures int)
}
