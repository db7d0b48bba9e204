// Package flowgraph provides a small dataflow execution engine for Go.
//
// A flowgraph pipeline is a fixed, acyclic topology of concurrently
// running stages connected by bounded channels. Each stage runs in its
// own goroutine and communicates exclusively through its channel ends,
// so a full downstream buffer blocks its producer and slowness
// propagates all the way back to the source: end-to-end backpressure
// with no unbounded buffering anywhere.
//
// # Building and Running a Graph
//
// A [Graph] is the explicit execution context for one run. Stage
// combinators register stages and allocate the channels connecting
// them; nothing executes until [Graph.Run]:
//
//	g := flowgraph.New(ctx)
//	nums := flowgraph.Source(g, "ints", 1, nextInt)
//	doubled := flowgraph.Map(g, "double", nums, 1, func(n int) (int, error) {
//	    return n * 2, nil
//	})
//	flowgraph.Sink(g, "print", doubled, consume)
//	err := g.Run()
//
// Run first validates the wiring: every channel must have exactly one
// writer end and one reader end owned by registered stages, and the
// stage graph must be acyclic. A [*TopologyError] is returned before
// any stage goroutine is launched. A graph runs exactly once; later
// calls return [ErrAlreadyRan].
//
// # Stages
//
//   - [Source] produces elements until its generator reports exhaustion.
//   - [Map] transforms one element into exactly one element.
//   - [FilterMap] transforms one element into zero or one element via
//     [Maybe]; [Filter] keeps elements matching a predicate.
//   - [Broadcast] replicates each element to all of its outputs in
//     lockstep, not advancing until every branch has accepted it.
//   - [Join2] and [JoinAll] synchronize their inputs: one element from
//     each input per cycle, combined into a single output, with no
//     partial or dropped tuples.
//   - [RateLimit] delays admission to at most rate elements per window,
//     token-bucket style, without dropping.
//   - [Sink] consumes terminal elements.
//
// # Supervision
//
// Element-level failures are raised from transforms as [*Failure]
// values with an explicit [FailureKind] (panics are captured and
// presented as [KindPanic]). A per-stage [Decider] table maps each kind
// to [Resume] (discard the element, keep going) or [Stop] (fail the
// graph); kinds absent from the table stop the graph. Attach a table
// with [WithSupervisor]:
//
//	flowgraph.Sink(g, "print", in, consume,
//	    flowgraph.WithSupervisor(flowgraph.Decider{
//	        "flaky": flowgraph.Resume,
//	    }))
//
// Only leaf stages accept a supervisor. Broadcast and the joins take
// none: their correctness depends on every branch seeing every element,
// and a Resume drop at a fan-out or fan-in point can permanently stall
// a join on the sibling branch. A transform that must skip elements
// upstream of a join should emit an absent [Maybe] placeholder instead,
// keeping the branches position-aligned.
//
// # Errors and Shutdown
//
// The first fatal stage failure cancels all sibling stages; [Graph.Run]
// returns it wrapped in a [*StageError]. Use [IsStageError], [StageOf],
// and [CauseOf] to attribute and unwrap it. [Graph.Stop] requests
// cooperative cancellation from outside; every stage observes it within
// one blocking operation and Run returns [ErrStopped].
//
// # Observability
//
// [WithLogger] attaches a slog.Logger (annotated with the graph's run
// ID) used for lifecycle events, Resume drops, and fatal stops.
// [WithOnStageStart] and [WithOnStageDone] register per-stage lifecycle
// hooks.
//
// # Channels
//
// The [github.com/baxromumarov/flowgraph/channel] subpackage provides
// the bounded FIFO primitive connecting stages, with context-aware
// Send/Recv and idempotent close.
package flowgraph
