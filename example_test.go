package flowgraph_test

import (
	"context"
	"fmt"
	"strconv"

	"github.com/baxromumarov/flowgraph"
)

// ExampleGraph builds and runs a small diamond topology: integers are
// broadcast to two branches that are re-joined in lockstep.
func ExampleGraph() {
	g := flowgraph.New(context.Background())

	i := 0
	nums := flowgraph.Source(g, "ints", 1, func(context.Context) (int, bool, error) {
		if i >= 3 {
			return 0, false, nil
		}
		i++
		return i, true, nil
	})

	branches := flowgraph.Broadcast(g, "split", nums, 2, 1)
	squares := flowgraph.Map(g, "square", branches[0], 1, func(n int) (int, error) {
		return n * n, nil
	})
	labels := flowgraph.Map(g, "label", branches[1], 1, func(n int) (string, error) {
		return strconv.Itoa(n), nil
	})

	joined := flowgraph.Join2(g, "zip", squares, labels, 1,
		func(sq int, label string) string {
			return fmt.Sprintf("%s^2=%d", label, sq)
		})

	flowgraph.Sink(g, "print", joined, func(s string) error {
		fmt.Println(s)
		return nil
	})

	if err := g.Run(); err != nil {
		fmt.Println("error:", err)
	}
	// Output:
	// 1^2=1
	// 2^2=4
	// 3^2=9
}

// ExampleWithSupervisor shows Resume recovery on a leaf stage: the
// failing element is dropped and the run completes.
func ExampleWithSupervisor() {
	g := flowgraph.New(context.Background())

	i := 0
	nums := flowgraph.Source(g, "ints", 1, func(context.Context) (int, bool, error) {
		if i >= 4 {
			return 0, false, nil
		}
		i++
		return i, true, nil
	})

	checked := flowgraph.Map(g, "check", nums, 1, func(n int) (int, error) {
		if n == 2 {
			return 0, flowgraph.Failf("bad_input", "refusing %d", n)
		}
		return n, nil
	}, flowgraph.WithSupervisor(flowgraph.Decider{
		"bad_input": flowgraph.Resume,
	}))

	flowgraph.Sink(g, "print", checked, func(n int) error {
		fmt.Println(n)
		return nil
	})

	if err := g.Run(); err != nil {
		fmt.Println("error:", err)
	}
	// Output:
	// 1
	// 3
	// 4
}
