// Command fizzbuzz runs the demo dataflow pipeline: a throttled integer
// source fanned out to fizz, buzz, and stringify branches, re-joined in
// lockstep and printed as "got: <value>" lines.
//
// It exits 0 when the source is exhausted and the graph drains cleanly,
// and 1 on a fatal stop, printing a diagnostic naming the failing stage.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/baxromumarov/flowgraph"
	"github.com/baxromumarov/flowgraph/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a pipeline HCL file (built-in defaults when empty)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg.LogLevel, os.Stderr)

	if err := run(context.Background(), cfg, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fizzbuzz: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Pipeline, logger *slog.Logger, out io.Writer) error {
	g := flowgraph.New(ctx, flowgraph.WithLogger(logger))
	buildPipeline(g, cfg, out)
	return g.Run()
}

// buildPipeline assembles the fizzbuzz topology:
//
//	ints → [throttle] → split ─┬─ fizz ──┐
//	                           ├─ buzz ──┴ merge-words ─┐
//	                           └─ stringify ──────────── pick → print
func buildPipeline(g *flowgraph.Graph, cfg config.Pipeline, out io.Writer) {
	c := cfg.Capacity

	nums := flowgraph.Source(g, "ints", c, counter(cfg.Count))
	if cfg.Rate != config.Unlimited {
		nums = flowgraph.RateLimit(g, "throttle", nums, cfg.Rate, cfg.Window, c)
	}

	branches := flowgraph.Broadcast(g, "split", nums, 3, c)
	fizz := flowgraph.Map(g, "fizz", branches[0], c, word(3, "fizz"))
	buzz := flowgraph.Map(g, "buzz", branches[1], c, word(5, "buzz"))
	digits := flowgraph.Map(g, "stringify", branches[2], c, func(n int) (string, error) {
		return strconv.Itoa(n), nil
	})

	words := flowgraph.Join2(g, "merge-words", fizz, buzz, c, mergeWords)
	lines := flowgraph.Join2(g, "pick", words, digits, c,
		func(w flowgraph.Maybe[string], s string) string {
			return w.OrElse(s)
		})

	flowgraph.Sink(g, "print", lines, printLine(out, cfg.FailureRate),
		flowgraph.WithSupervisor(cfg.OnFailure))
}

// counter generates the integers 1..n.
func counter(n int) func(context.Context) (int, bool, error) {
	i := 0
	return func(context.Context) (int, bool, error) {
		if i >= n {
			return 0, false, nil
		}
		i++
		return i, true, nil
	}
}

// word emits w for multiples of div and an absent placeholder otherwise.
// The placeholder keeps the branch aligned with its siblings through the
// downstream joins.
func word(div int, w string) func(int) (flowgraph.Maybe[string], error) {
	return func(n int) (flowgraph.Maybe[string], error) {
		if n%div == 0 {
			return flowgraph.Some(w), nil
		}
		return flowgraph.None[string](), nil
	}
}

// mergeWords combines the fizz and buzz branches: both present
// concatenates ("fizzbuzz"), otherwise whichever word is present wins.
func mergeWords(f, b flowgraph.Maybe[string]) flowgraph.Maybe[string] {
	if f.Present() && b.Present() {
		return flowgraph.Some(f.Value() + b.Value())
	}
	return flowgraph.Coalesce(f, b)
}

func printLine(w io.Writer, failureRate float64) func(string) error {
	return func(s string) error {
		if failureRate > 0 && rand.Float64() < failureRate {
			return flowgraph.Failf(config.KindFlaky, "injected failure for %q", s)
		}
		_, err := fmt.Fprintf(w, "got: %s\n", s)
		return err
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
