package flowgraph

import (
	"context"
	"fmt"

	"github.com/baxromumarov/flowgraph/channel"
)

// Broadcast registers a lockstep fan-out stage replicating every input
// element to all n output channels. The next element is not received
// until the current one has been accepted by every output, so the
// slowest downstream branch throttles the whole broadcast and, through
// it, everything upstream.
//
// On input end-of-stream all outputs are closed. A failed send to any
// output (for example a downstream channel closed early) is fatal to
// the graph. Broadcast takes no supervisor: resuming past an element at
// a fan-out point would desynchronize the sibling branches.
//
// Broadcast panics if n < 1.
func Broadcast[T any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	n int,
	capacity int,
) []*channel.Bounded[T] {
	if n < 1 {
		panic("flowgraph: Broadcast requires n >= 1")
	}

	outs := make([]*channel.Bounded[T], n)
	outKeys := make([]any, n)
	for i := range outs {
		outs[i] = channel.New[T](capacity)
		outKeys[i] = outs[i]
	}

	g.addStage(name, func(ctx context.Context) error {
		defer func() {
			for _, out := range outs {
				out.Close()
			}
		}()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			for i, out := range outs {
				if err := out.Send(ctx, v); err != nil {
					return fmt.Errorf("broadcast output %d: %w", i, err)
				}
			}
		}
	}, []any{in}, outKeys)

	return outs
}
