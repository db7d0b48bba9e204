package flowgraph

import "fmt"

// TopologyError reports an assembly-time wiring defect: a channel with
// a missing or duplicated end owner, a duplicate stage name, or a cycle.
// Wiring errors are always fatal and are detected before any stage
// goroutine is launched.
type TopologyError struct {
	Stage  string
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("flowgraph: topology: stage %q: %s", e.Stage, e.Reason)
}

// validate checks the assembled topology: unique stage names, exactly
// one writer and one reader per channel, and acyclicity of the
// stage-to-stage edges induced by the channels.
func validate(stages []*stageSpec) error {
	names := make(map[string]struct{}, len(stages))
	writer := make(map[any]int)
	reader := make(map[any]int)

	for i, st := range stages {
		if _, ok := names[st.name]; ok {
			return &TopologyError{Stage: st.name, Reason: "duplicate stage name"}
		}
		names[st.name] = struct{}{}

		for _, out := range st.outs {
			if _, ok := writer[out]; ok {
				return &TopologyError{Stage: st.name, Reason: "output channel already has a writer"}
			}
			writer[out] = i
		}
		for _, in := range st.ins {
			if _, ok := reader[in]; ok {
				return &TopologyError{Stage: st.name, Reason: "input channel already has a reader"}
			}
			reader[in] = i
		}
	}

	for ch, w := range writer {
		if _, ok := reader[ch]; !ok {
			return &TopologyError{Stage: stages[w].name, Reason: "output channel has no reader"}
		}
	}
	for ch, r := range reader {
		if _, ok := writer[ch]; !ok {
			return &TopologyError{Stage: stages[r].name, Reason: "input channel has no writer"}
		}
	}

	adj := make([][]int, len(stages))
	for ch, w := range writer {
		if r, ok := reader[ch]; ok {
			adj[w] = append(adj[w], r)
		}
	}
	if n, ok := findCycle(adj); ok {
		return &TopologyError{Stage: stages[n].name, Reason: "topology contains a cycle"}
	}
	return nil
}

// findCycle runs an iterative three-color DFS over the stage adjacency
// and returns a stage on a cycle, if any.
func findCycle(adj [][]int) (int, bool) {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(adj))

	var visit func(int) (int, bool)
	visit = func(n int) (int, bool) {
		color[n] = grey
		for _, next := range adj[n] {
			switch color[next] {
			case grey:
				return next, true
			case white:
				if c, ok := visit(next); ok {
					return c, ok
				}
			}
		}
		color[n] = black
		return 0, false
	}

	for n := range adj {
		if color[n] == white {
			if c, ok := visit(n); ok {
				return c, true
			}
		}
	}
	return 0, false
}
