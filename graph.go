package flowgraph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jeffail/shutdown"
	"github.com/google/uuid"
)

var (
	// ErrAlreadyRan is returned by [Graph.Run] on the second and later calls.
	// A graph is runnable exactly once.
	ErrAlreadyRan = errors.New("flowgraph: graph already ran")

	// ErrStopped is returned by [Graph.Run] when the run was terminated
	// by [Graph.Stop] rather than by a stage failure.
	ErrStopped = errors.New("flowgraph: graph stopped")
)

// Graph holds the assembled topology and the run state. Create one via
// [New], register stages through the combinators, then call [Graph.Run].
type Graph struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	cfg    graphConfig
	runID  uuid.UUID
	shut   *shutdown.Signaller

	mu     sync.Mutex
	stages []*stageSpec
	ran    bool

	wg       sync.WaitGroup
	firstErr atomicError
	errOnce  sync.Once
}

// New creates an empty Graph bound to the given parent context. The
// graph is an explicit execution context object: it owns the run
// lifecycle and is released when [Graph.Run] returns. Each graph
// carries a unique run ID attached to all of its log records.
func New(parent context.Context, opts ...Option) *Graph {
	cfg := defaultGraphConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := uuid.New()
	cfg.logger = cfg.logger.With("run_id", runID.String())

	ctx, cancel := context.WithCancelCause(parent)
	return &Graph{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		runID:  runID,
		shut:   shutdown.NewSignaller(),
	}
}

// RunID returns the unique identifier of this graph run.
func (g *Graph) RunID() uuid.UUID { return g.runID }

// Run validates the topology, executes every registered stage in its
// own goroutine, and blocks until all stages have terminated.
//
// It returns nil when the source is exhausted and every stage drained
// cleanly; a [*TopologyError] if the wiring is invalid (no stage runs
// in that case); a [*StageError] wrapping the first fatal stage
// failure; or [ErrStopped] after [Graph.Stop].
func (g *Graph) Run() error {
	g.mu.Lock()
	if g.ran {
		g.mu.Unlock()
		return ErrAlreadyRan
	}
	g.ran = true
	stages := make([]*stageSpec, len(g.stages))
	copy(stages, g.stages)
	g.mu.Unlock()

	if err := validate(stages); err != nil {
		g.cancel(err)
		g.shut.TriggerHasStopped()
		g.cfg.logger.Error("topology rejected", "error", err)
		return err
	}

	// Bridge the external stop signal into context cancellation so
	// stages blocked on channel operations unwind promptly.
	go func() {
		select {
		case <-g.shut.HardStopChan():
			g.cancel(ErrStopped)
		case <-g.ctx.Done():
		}
	}()

	g.cfg.logger.Info("graph started", "stages", len(stages))

	for _, st := range stages {
		g.wg.Add(1)
		go func(st *stageSpec) {
			defer g.wg.Done()

			info := StageInfo{Name: st.name}
			if g.cfg.onStart != nil {
				g.cfg.onStart(info)
			}
			g.cfg.logger.Debug("stage started", "stage", st.name)

			start := time.Now()
			err := g.exec(st)
			elapsed := time.Since(start)

			if g.cfg.onDone != nil {
				g.cfg.onDone(info, err, elapsed)
			}
			if err != nil {
				g.recordError(info, err)
			}
			g.cfg.logger.Debug("stage finished",
				"stage", st.name, "error", err, "elapsed", elapsed)
		}(st)
	}

	g.wg.Wait()
	g.shut.TriggerHasStopped()

	err := g.firstErr.Load()
	if err == nil {
		// No stage failed: surface an external stop or parent
		// cancellation, if any.
		if cause := context.Cause(g.ctx); cause != nil {
			err = cause
		}
	}
	g.cancel(nil)

	if err != nil {
		g.cfg.logger.Error("graph failed", "error", err)
	} else {
		g.cfg.logger.Info("graph completed")
	}
	return err
}

// Stop requests cooperative cancellation of a running graph. Stages
// observe it within one blocking operation and unwind; [Graph.Run]
// then returns [ErrStopped]. Stop is safe to call at any time and from
// any goroutine.
func (g *Graph) Stop() {
	g.shut.TriggerHardStop()
}

// Done returns a channel closed once the run has fully terminated and
// every stage goroutine has been joined.
func (g *Graph) Done() <-chan struct{} {
	return g.shut.HasStoppedChan()
}

// exec runs one stage loop with panic recovery. Panics escaping a
// stage loop itself (as opposed to a transform, which is recovered by
// apply) indicate an internal invariant violation and are fatal.
func (g *Graph) exec(st *stageSpec) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = capturePanic(r)
		}
	}()
	return st.run(g.ctx)
}

// recordError records a fatal stage failure and cancels the graph.
// Cancellation fallout is not recorded: a stage returning the context
// error after the graph was already cancelled is unwinding, not failing.
func (g *Graph) recordError(info StageInfo, err error) {
	if errors.Is(err, context.Canceled) && g.ctx.Err() != nil {
		return
	}
	se := &StageError{Stage: info, Err: err}
	g.errOnce.Do(func() {
		g.firstErr.Store(se)
		g.cancel(se)
	})
}

// atomicError is an error holder safe for concurrent Store/Load.
type atomicError struct {
	v atomic.Value
}

func (a *atomicError) Store(err error) {
	a.v.Store(&err)
}

func (a *atomicError) Load() error {
	p, ok := a.v.Load().(*error)
	if !ok {
		return nil
	}
	return *p
}
