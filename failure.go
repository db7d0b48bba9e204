package flowgraph

import (
	"errors"
	"fmt"
)

// FailureKind identifies a category of element-level transform failure.
// Kinds are declared by the application; the supervisor's decision table
// maps each kind to a [Decision]. A failure whose kind is absent from
// the table stops the graph: recovery must be opted into explicitly,
// never inferred from a broad any-error match.
type FailureKind string

// KindPanic is the kind assigned to failures recovered from a panic
// inside a transform function.
const KindPanic FailureKind = "panic"

// Decision is the supervisor's verdict for one element-level failure.
type Decision int

const (
	// Stop terminates the stage abnormally and fails the whole graph.
	Stop Decision = iota

	// Resume discards the failing element and continues with the next.
	Resume
)

func (d Decision) String() string {
	switch d {
	case Stop:
		return "stop"
	case Resume:
		return "resume"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decider maps failure kinds to decisions. A nil Decider, and any kind
// not present in the map, decides [Stop].
type Decider map[FailureKind]Decision

func (d Decider) decide(k FailureKind) Decision {
	if d == nil {
		return Stop
	}
	dec, ok := d[k]
	if !ok {
		return Stop
	}
	return dec
}

// Failure is an element-level transform error carrying an explicit kind
// for the supervisor to dispatch on.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Failf builds a [*Failure] of the given kind with a formatted message.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the [FailureKind] from err's chain. Recovered panics
// report [KindPanic]. Returns false for errors with no explicit kind.
func KindOf(err error) (FailureKind, bool) {
	if err == nil {
		return "", false
	}

	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return KindPanic, true
	}
	return "", false
}
