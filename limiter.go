package flowgraph

import (
	"context"
	"time"

	"github.com/baxromumarov/flowgraph/channel"
)

// RateLimit registers a throttling stage admitting at most rate
// elements per window. It uses a token bucket: rate tokens are
// available initially and one token is replenished every window/rate
// interval, so the long-run admitted rate never exceeds rate/window.
// Elements are only delayed, never dropped, preserving backpressure.
//
// RateLimit panics if rate or window is not positive.
func RateLimit[T any](
	g *Graph,
	name string,
	in *channel.Bounded[T],
	rate int,
	window time.Duration,
	capacity int,
) *channel.Bounded[T] {
	if rate <= 0 {
		panic("flowgraph: RateLimit requires rate > 0")
	}
	if window <= 0 {
		panic("flowgraph: RateLimit requires window > 0")
	}

	out := channel.New[T](capacity)

	g.addStage(name, func(ctx context.Context) error {
		defer out.Close()

		interval := window / time.Duration(rate)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		tokens := rate // start with a full bucket for the initial burst
		for {
			if tokens == 0 {
				// Quota exhausted: wait for a refill.
				select {
				case <-ticker.C:
					tokens++
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}

			select {
			case v, ok := <-in.Chan():
				if !ok {
					return nil
				}
				tokens--
				if err := out.Send(ctx, v); err != nil {
					return err
				}
			case <-ticker.C:
				if tokens < rate {
					tokens++
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}, []any{in}, []any{out})

	return out
}
