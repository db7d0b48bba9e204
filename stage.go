package flowgraph

import "context"

// stageSpec is the registration record for one stage: its name, the
// loop to run in its own goroutine, and the channel ends it owns.
// Channel ends are recorded as opaque comparable keys (the *Bounded
// pointers) so the wiring registry can enforce single-writer,
// single-reader ownership without caring about element types.
type stageSpec struct {
	name string
	run  func(ctx context.Context) error
	ins  []any
	outs []any
}

// addStage registers a stage with the graph. Goroutines are not
// launched until [Graph.Run], so a wiring error found during validation
// means no stage ever executed.
func (g *Graph) addStage(name string, run func(ctx context.Context) error, ins, outs []any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ran {
		panic("flowgraph: stage added after Run")
	}
	g.stages = append(g.stages, &stageSpec{
		name: name,
		run:  run,
		ins:  ins,
		outs: outs,
	})
}

// apply invokes a transform with panic recovery. A recovered panic is
// presented to the supervisor as a failure of kind [KindPanic].
func apply[T, U any](fn func(T) (U, error), v T) (out U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = capturePanic(r)
		}
	}()
	return fn(v)
}

// supervise consults the stage's decision table for an element-level
// failure. Resume drops are logged at warn; the element is discarded
// and the stage loop continues. Stop failures terminate the stage.
func (g *Graph) supervise(name string, d Decider, elemErr error) Decision {
	kind, _ := KindOf(elemErr)
	dec := d.decide(kind)
	if dec == Resume {
		g.cfg.logger.Warn("element dropped",
			"stage", name,
			"kind", string(kind),
			"error", elemErr,
		)
	}
	return dec
}
