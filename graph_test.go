package flowgraph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/flowgraph/channel"
)

// ints returns a generator producing 1..n.
func ints(n int) func(context.Context) (int, bool, error) {
	i := 0
	return func(context.Context) (int, bool, error) {
		if i >= n {
			return 0, false, nil
		}
		i++
		return i, true, nil
	}
}

func TestGraphLinearPipeline(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 2, ints(10))
	doubled := Map(g, "double", nums, 2, func(n int) (int, error) {
		return n * 2, nil
	})

	var got []int
	Sink(g, "collect", doubled, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, got)
}

func TestGraphRunsExactlyOnce(t *testing.T) {
	g := New(context.Background())
	nums := Source(g, "ints", 1, ints(1))
	Sink(g, "drop", nums, func(int) error { return nil })

	require.NoError(t, g.Run())
	assert.ErrorIs(t, g.Run(), ErrAlreadyRan)
}

func TestGraphStop(t *testing.T) {
	g := New(context.Background())

	// Unbounded source; the run only ends via Stop.
	i := 0
	nums := Source(g, "ints", 1, func(context.Context) (int, bool, error) {
		i++
		return i, true, nil
	})

	started := make(chan struct{})
	var once sync.Once
	Sink(g, "slow", nums, func(int) error {
		once.Do(func() { close(started) })
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- g.Run() }()

	<-started
	g.Stop()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("graph did not unwind after Stop")
	}

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not signalled after Run returned")
	}
}

func TestGraphParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := New(ctx)

	i := 0
	nums := Source(g, "ints", 1, func(context.Context) (int, bool, error) {
		i++
		return i, true, nil
	})
	Sink(g, "drop", nums, func(int) error { return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- g.Run() }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("graph did not unwind after parent cancellation")
	}
}

func TestGraphStageHooks(t *testing.T) {
	var started, done atomic.Int64

	g := New(context.Background(),
		WithOnStageStart(func(StageInfo) { started.Add(1) }),
		WithOnStageDone(func(_ StageInfo, err error, d time.Duration) {
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			done.Add(1)
		}),
	)

	nums := Source(g, "ints", 1, ints(3))
	Sink(g, "drop", nums, func(int) error { return nil })

	require.NoError(t, g.Run())
	assert.Equal(t, int64(2), started.Load())
	assert.Equal(t, int64(2), done.Load())
}

func TestGraphTransformFailureStops(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(10))
	odd := Map(g, "reject-threes", nums, 1, func(n int) (int, error) {
		if n == 3 {
			return 0, Failf("bad_input", "refusing %d", n)
		}
		return n, nil
	})
	Sink(g, "drop", odd, func(int) error { return nil })

	err := g.Run()
	require.Error(t, err)

	info, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, "reject-threes", info.Name)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, FailureKind("bad_input"), kind)
}

func TestGraphTransformPanicStops(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(5))
	boom := Map(g, "boom", nums, 1, func(n int) (int, error) {
		if n == 2 {
			panic("kaboom")
		}
		return n, nil
	})
	Sink(g, "drop", boom, func(int) error { return nil })

	err := g.Run()
	require.Error(t, err)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)

	kind, _ := KindOf(err)
	assert.Equal(t, KindPanic, kind)
}

func TestGraphSupervisorResume(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(10))
	flaky := Map(g, "flaky", nums, 1, func(n int) (int, error) {
		if n == 4 {
			return 0, Failf("flaky", "injected for %d", n)
		}
		return n, nil
	}, WithSupervisor(Decider{"flaky": Resume}))

	var got []int
	Sink(g, "collect", flaky, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{1, 2, 3, 5, 6, 7, 8, 9, 10}, got)
}

func TestGraphSupervisorResumeOnPanic(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(5))
	boom := Map(g, "boom", nums, 1, func(n int) (int, error) {
		if n == 2 {
			panic("kaboom")
		}
		return n, nil
	}, WithSupervisor(Decider{KindPanic: Resume}))

	var got []int
	Sink(g, "collect", boom, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{1, 3, 4, 5}, got)
}

func TestGraphSupervisorUnknownKindStops(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(5))
	flaky := Map(g, "flaky", nums, 1, func(n int) (int, error) {
		return 0, Failf("surprise", "boom")
	}, WithSupervisor(Decider{"flaky": Resume}))
	Sink(g, "drop", flaky, func(int) error { return nil })

	err := g.Run()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, FailureKind("surprise"), kind)
}

func TestGraphSourceSupervision(t *testing.T) {
	g := New(context.Background())

	i := 0
	nums := Source(g, "ints", 1, func(context.Context) (int, bool, error) {
		i++
		if i > 5 {
			return 0, false, nil
		}
		if i == 3 {
			return 0, true, Failf("gap", "skipping %d", i)
		}
		return i, true, nil
	}, WithSupervisor(Decider{"gap": Resume}))

	var got []int
	Sink(g, "collect", nums, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{1, 2, 4, 5}, got)
}

func TestGraphSinkSupervision(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(6))
	var got []int
	Sink(g, "collect", nums, func(n int) error {
		if n%2 == 0 {
			return Failf("flaky", "rejecting %d", n)
		}
		got = append(got, n)
		return nil
	}, WithSupervisor(Decider{"flaky": Resume}))

	require.NoError(t, g.Run())
	assert.Equal(t, []int{1, 3, 5}, got)
}

func TestGraphEmptySource(t *testing.T) {
	g := New(context.Background())
	nums := Source(g, "ints", 1, ints(0))
	var got []int
	Sink(g, "collect", nums, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Empty(t, got)
}

func TestGraphRejectsUnwiredInput(t *testing.T) {
	g := New(context.Background())

	orphan := channel.New[int](1)
	called := false
	Sink(g, "sink", orphan, func(int) error {
		called = true
		return nil
	})

	err := g.Run()
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "sink", te.Stage)
	assert.False(t, called, "no stage may run when the topology is rejected")
}

func TestGraphRunIDPropagated(t *testing.T) {
	g := New(context.Background())
	assert.NotEqual(t, [16]byte{}, [16]byte(g.RunID()))
}

func TestFilterMapDropsAbsent(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(10))
	evens := FilterMap(g, "evens", nums, 1, func(n int) (Maybe[int], error) {
		if n%2 == 0 {
			return Some(n), nil
		}
		return None[int](), nil
	})

	var got []int
	Sink(g, "collect", evens, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{2, 4, 6, 8, 10}, got)
}

func TestFilterPredicate(t *testing.T) {
	g := New(context.Background())

	nums := Source(g, "ints", 1, ints(6))
	big := Filter(g, "big", nums, 1, func(n int) bool { return n > 3 })

	var got []int
	Sink(g, "collect", big, func(n int) error {
		got = append(got, n)
		return nil
	})

	require.NoError(t, g.Run())
	assert.Equal(t, []int{4, 5, 6}, got)
}

func TestAddStageAfterRunPanics(t *testing.T) {
	g := New(context.Background())
	nums := Source(g, "ints", 1, ints(1))
	Sink(g, "drop", nums, func(int) error { return nil })
	require.NoError(t, g.Run())

	assert.Panics(t, func() {
		Source(g, "late", 1, ints(1))
	})
}

func TestAtomicError(t *testing.T) {
	var ae atomicError
	assert.Nil(t, ae.Load())

	want := errors.New("boom")
	ae.Store(want)
	assert.Equal(t, want, ae.Load())
}
