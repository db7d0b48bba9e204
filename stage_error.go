package flowgraph

import (
	"errors"
	"fmt"
)

// StageError wraps an error together with the [StageInfo] of the stage
// that produced it. Every fatal stage failure surfaced by [Graph.Run]
// is wrapped in a StageError so callers can attribute it.
type StageError struct {
	Stage StageInfo
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage.Name, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsStageError reports whether err (or any error in its chain) is a [*StageError].
func IsStageError(err error) bool {
	if err == nil {
		return false
	}
	var se *StageError
	return errors.As(err, &se)
}

// StageOf extracts the [StageInfo] from the first [*StageError] in err's
// chain. Returns false if no StageError is found.
func StageOf(err error) (StageInfo, bool) {
	if err == nil {
		return StageInfo{}, false
	}

	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return StageInfo{}, false
}

// CauseOf unwraps the first [*StageError] in err's chain and returns its
// underlying cause. If err is not a StageError, it is returned as-is.
// Returns nil if err is nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var se *StageError
	if errors.As(err, &se) {
		return se.Err
	}

	return err
}
