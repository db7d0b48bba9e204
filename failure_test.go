package flowgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailfCarriesKind(t *testing.T) {
	err := Failf("bad_input", "element %d rejected", 7)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, FailureKind("bad_input"), kind)
	assert.Contains(t, err.Error(), "bad_input")
	assert.Contains(t, err.Error(), "element 7 rejected")
}

func TestKindOfWrappedFailure(t *testing.T) {
	err := fmt.Errorf("processing: %w", Failf("flaky", "boom"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, FailureKind("flaky"), kind)
}

func TestKindOfPanicError(t *testing.T) {
	kind, ok := KindOf(capturePanic("boom"))
	require.True(t, ok)
	assert.Equal(t, KindPanic, kind)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("anonymous"))
	assert.False(t, ok)

	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestDeciderDefaultsToStop(t *testing.T) {
	var nilTable Decider
	assert.Equal(t, Stop, nilTable.decide("anything"))

	table := Decider{"flaky": Resume}
	assert.Equal(t, Resume, table.decide("flaky"))
	assert.Equal(t, Stop, table.decide("unknown"))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "stop", Stop.String())
	assert.Equal(t, "resume", Resume.String())
}

func TestStageErrorAttribution(t *testing.T) {
	cause := Failf("flaky", "boom")
	err := &StageError{Stage: StageInfo{Name: "print"}, Err: cause}

	assert.True(t, IsStageError(err))
	assert.False(t, IsStageError(errors.New("plain")))
	assert.False(t, IsStageError(nil))

	info, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, "print", info.Name)

	assert.Equal(t, cause, CauseOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `stage "print" failed`)
}

func TestStageErrorWrapped(t *testing.T) {
	inner := &StageError{Stage: StageInfo{Name: "fizz"}, Err: errors.New("boom")}
	wrapped := fmt.Errorf("run: %w", inner)

	info, ok := StageOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, "fizz", info.Name)
}

func TestCauseOfPassthrough(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, plain, CauseOf(plain))
	assert.Nil(t, CauseOf(nil))
}

func TestPanicErrorIncludesStack(t *testing.T) {
	pe := capturePanic("kaboom")
	assert.Contains(t, pe.Error(), "kaboom")
	assert.Contains(t, pe.Error(), "goroutine")
	assert.Nil(t, pe.Unwrap())
}
