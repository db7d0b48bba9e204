package flowgraph

import (
	"context"

	"github.com/baxromumarov/flowgraph/channel"
)

// Source registers a producer stage. next is invoked once per element;
// it returns ok=false once the sequence is exhausted, at which point
// the output channel is closed and the stage terminates. An error from
// next goes through the stage's supervisor: Resume skips that element,
// Stop fails the graph.
//
// The returned channel is the stage's output end with the given
// capacity; pass it to a downstream combinator.
func Source[T any](
	g *Graph,
	name string,
	capacity int,
	next func(ctx context.Context) (T, bool, error),
	opts ...StageOption,
) *channel.Bounded[T] {
	out := channel.New[T](capacity)
	cfg := newStageConfig(opts)

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()
		for {
			v, ok, err := produce(ctx, next)
			if err != nil {
				if g.supervise(name, cfg.decider, err) == Resume {
					continue
				}
				return err
			}
			if !ok {
				return nil
			}
			if err := out.Send(ctx, v); err != nil {
				return err
			}
		}
	}, nil, []any{out})

	return out
}

// produce invokes next with panic recovery, mirroring apply for the
// producer signature.
func produce[T any](
	ctx context.Context,
	next func(ctx context.Context) (T, bool, error),
) (v T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = capturePanic(r)
		}
	}()
	return next(ctx)
}

// Map registers a one-for-one transform stage: every input element
// yields exactly one output element, unless the transform fails and the
// supervisor decides Resume, in which case the element is dropped.
//
// Note that a Resume drop in a Map feeding a join desynchronizes the
// join's branches; transforms upstream of a join should emit a [Maybe]
// placeholder instead of dropping (see [FilterMap] and the package
// documentation).
func Map[T, U any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	capacity int,
	fn func(T) (U, error),
	opts ...StageOption,
) *channel.Bounded[U] {
	out := channel.New[U](capacity)
	cfg := newStageConfig(opts)

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			u, err := apply(fn, v)
			if err != nil {
				if g.supervise(name, cfg.decider, err) == Resume {
					continue
				}
				return err
			}

			if err := out.Send(ctx, u); err != nil {
				return err
			}
		}
	}, []any{in}, []any{out})

	return out
}

// FilterMap registers a zero-or-one transform stage: the transform
// returns a [Maybe], and an absent result emits nothing for that tick.
func FilterMap[T, U any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	capacity int,
	fn func(T) (Maybe[U], error),
	opts ...StageOption,
) *channel.Bounded[U] {
	out := channel.New[U](capacity)
	cfg := newStageConfig(opts)

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			m, err := apply(fn, v)
			if err != nil {
				if g.supervise(name, cfg.decider, err) == Resume {
					continue
				}
				return err
			}
			if !m.Present() {
				continue
			}

			if err := out.Send(ctx, m.Value()); err != nil {
				return err
			}
		}
	}, []any{in}, []any{out})

	return out
}

// Filter registers a stage passing through only the elements for which
// pred returns true.
func Filter[T any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	capacity int,
	pred func(T) bool,
) *channel.Bounded[T] {
	return FilterMap(g, name, in, capacity, func(v T) (Maybe[T], error) {
		if pred(v) {
			return Some(v), nil
		}
		return None[T](), nil
	})
}

// Sink registers a terminal consumer stage. fn is invoked once per
// element; an error goes through the stage's supervisor.
func Sink[T any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	fn func(T) error,
	opts ...StageOption,
) {
	cfg := newStageConfig(opts)

	g.addStage(name, func(ctx context.Context) error {
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if _, err := apply(func(v T) (struct{}, error) {
				return struct{}{}, fn(v)
			}, v); err != nil {
				if g.supervise(name, cfg.decider, err) == Resume {
					continue
				}
				return err
			}
		}
	}, []any{in}, nil)
}
