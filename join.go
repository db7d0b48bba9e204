package flowgraph

import (
	"context"

	"github.com/baxromumarov/flowgraph/channel"
)

// Join2 registers a synchronized fan-in stage over two input channels.
// Each cycle it receives exactly one element from each input, applies
// combine, and emits the single result. It holds at most one pending
// element per input while waiting for the other, never emits a partial
// pair, and never drops an input.
//
// When either input reaches end-of-stream the output is closed without
// emitting a partial final tuple; an element already received from the
// other input in that cycle is discarded.
//
// Because both branches of a broadcast process elements one-for-one in
// order, the i-th emitted combination always pairs values derived from
// the i-th element that entered the broadcast. Join2 takes no
// supervisor: a Resume at a fan-in point could stall the join forever
// on the sibling input.
//
// combine must be deterministic: the same pair of inputs always yields
// the same output.
func Join2[A, B, C any](
	g *Graph,
	name string,
	inA *channel.Bounded[A],
	inB *channel.Bounded[B],
	capacity int,
	combine func(A, B) C,
) *channel.Bounded[C] {
	out := channel.New[C](capacity)

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()
		for {
			a, ok, err := inA.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			b, ok, err := inB.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if err := out.Send(ctx, combine(a, b)); err != nil {
				return err
			}
		}
	}, []any{inA, inB}, []any{out})

	return out
}

// JoinAll generalizes [Join2] to n homogeneous inputs: each cycle it
// gathers one element from every input, applies combine to the ordered
// tuple, and emits one result. The tuple slice is reused between
// invocations of combine and must not be retained.
//
// JoinAll panics if ins is empty.
func JoinAll[T, U any](
	g *Graph,
	name string,
	ins []*channel.Bounded[T],
	capacity int,
	combine func([]T) U,
) *channel.Bounded[U] {
	if len(ins) == 0 {
		panic("flowgraph: JoinAll requires at least one input")
	}

	out := channel.New[U](capacity)
	inKeys := make([]any, len(ins))
	for i, in := range ins {
		inKeys[i] = in
	}

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()
		tuple := make([]T, len(ins))
		for {
			for i, in := range ins {
				v, ok, err := in.Recv(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				tuple[i] = v
			}

			if err := out.Send(ctx, combine(tuple)); err != nil {
				return err
			}
		}
	}, inKeys, []any{out})

	return out
}
