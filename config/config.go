// Package config loads the demo pipeline's parameters from an HCL file.
//
// All knobs are constructor-time configuration: the sequence length,
// rate limiter quota and window, channel capacities, the failure
// injection probability used to exercise supervision, and the
// kind-to-decision table. The file is parsed with hclparse and decoded
// via gohcl; the rate and on_failure attributes are evaluated against
// an EvalContext exposing the unlimited, resume, and stop constants.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/baxromumarov/flowgraph"
)

// Unlimited as a rate disables the rate limiter entirely.
const Unlimited = -1

// KindFlaky is the failure kind raised by the demo sink's injected
// failures.
const KindFlaky flowgraph.FailureKind = "flaky"

// Pipeline holds the resolved demo pipeline parameters.
type Pipeline struct {
	// Count is the number of integers the source produces.
	Count int

	// Rate and Window bound source admission to Rate elements per
	// Window. Rate == Unlimited disables throttling.
	Rate   int
	Window time.Duration

	// Capacity applies to every channel in the topology.
	Capacity int

	// FailureRate is the probability in [0, 1] that the sink fails a
	// given element with [KindFlaky].
	FailureRate float64

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// OnFailure is the supervisor decision table attached to the sink.
	OnFailure flowgraph.Decider
}

// Default returns the built-in parameters: the canonical 15-element
// run, unthrottled, synchronous handoff channels, no injected failures,
// and Resume on flaky elements.
func Default() Pipeline {
	return Pipeline{
		Count:       15,
		Rate:        Unlimited,
		Window:      time.Second,
		Capacity:    1,
		FailureRate: 0,
		LogLevel:    "info",
		OnFailure: flowgraph.Decider{
			KindFlaky: flowgraph.Resume,
		},
	}
}

type fileRoot struct {
	Pipeline *pipelineBlock `hcl:"pipeline,block"`
}

type pipelineBlock struct {
	Count       *int           `hcl:"count,optional"`
	Rate        hcl.Expression `hcl:"rate,optional"`
	WindowMS    *int64         `hcl:"window_ms,optional"`
	Capacity    *int           `hcl:"capacity,optional"`
	FailureRate *float64       `hcl:"failure_rate,optional"`
	LogLevel    *string        `hcl:"log_level,optional"`
	OnFailure   hcl.Expression `hcl:"on_failure,optional"`
}

// evalContext exposes the symbolic constants usable in pipeline files:
// unlimited for the rate, resume and stop for decisions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"unlimited": cty.NumberIntVal(Unlimited),
			"resume":    cty.StringVal("resume"),
			"stop":      cty.StringVal("stop"),
		},
	}
}

// Load parses path and merges its pipeline block over [Default].
func Load(path string) (Pipeline, error) {
	cfg := Default()

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("config: parse %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return cfg, fmt.Errorf("config: decode %s: %w", path, diags)
	}
	if root.Pipeline == nil {
		return cfg, nil
	}

	if err := merge(&cfg, root.Pipeline); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Pipeline, b *pipelineBlock) error {
	if b.Count != nil {
		cfg.Count = *b.Count
	}
	if b.WindowMS != nil {
		cfg.Window = time.Duration(*b.WindowMS) * time.Millisecond
	}
	if b.Capacity != nil {
		cfg.Capacity = *b.Capacity
	}
	if b.FailureRate != nil {
		cfg.FailureRate = *b.FailureRate
	}
	if b.LogLevel != nil {
		cfg.LogLevel = *b.LogLevel
	}

	if b.Rate != nil {
		val, diags := b.Rate.Value(evalContext())
		if diags.HasErrors() {
			return fmt.Errorf("rate: %w", diags)
		}
		if !val.IsNull() {
			if err := gocty.FromCtyValue(val, &cfg.Rate); err != nil {
				return fmt.Errorf("rate: %w", err)
			}
		}
	}

	if b.OnFailure != nil {
		val, diags := b.OnFailure.Value(evalContext())
		if diags.HasErrors() {
			return fmt.Errorf("on_failure: %w", diags)
		}
		if !val.IsNull() {
			table, err := decodeDecider(val)
			if err != nil {
				return fmt.Errorf("on_failure: %w", err)
			}
			cfg.OnFailure = table
		}
	}
	return nil
}

func decodeDecider(val cty.Value) (flowgraph.Decider, error) {
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("expected a map of failure kind to decision, got %s", val.Type().FriendlyName())
	}

	table := make(flowgraph.Decider)
	for kind, dec := range val.AsValueMap() {
		if dec.Type() != cty.String {
			return nil, fmt.Errorf("kind %q: decision must be resume or stop", kind)
		}
		switch dec.AsString() {
		case "resume":
			table[flowgraph.FailureKind(kind)] = flowgraph.Resume
		case "stop":
			table[flowgraph.FailureKind(kind)] = flowgraph.Stop
		default:
			return nil, fmt.Errorf("kind %q: unknown decision %q", kind, dec.AsString())
		}
	}
	return table, nil
}

func (p Pipeline) validate() error {
	if p.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", p.Count)
	}
	if p.Rate != Unlimited && p.Rate <= 0 {
		return fmt.Errorf("rate must be positive or unlimited, got %d", p.Rate)
	}
	if p.Window <= 0 {
		return fmt.Errorf("window_ms must be positive, got %s", p.Window)
	}
	if p.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", p.Capacity)
	}
	if p.FailureRate < 0 || p.FailureRate > 1 {
		return fmt.Errorf("failure_rate must be within [0, 1], got %g", p.FailureRate)
	}
	switch p.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", p.LogLevel)
	}
	return nil
}
