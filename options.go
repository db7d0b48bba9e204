package flowgraph

import (
	"log/slog"
	"time"
)

// StageInfo provides metadata about a stage.
// It is passed to observability hooks registered via [WithOnStageStart]
// and [WithOnStageDone], and embedded in [StageError].
type StageInfo struct {
	Name string
}

type graphConfig struct {
	logger  *slog.Logger
	onStart func(StageInfo)
	onDone  func(StageInfo, error, time.Duration)
}

// Option configures a [Graph].
type Option func(*graphConfig)

func defaultGraphConfig() graphConfig {
	return graphConfig{
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the logger used for graph lifecycle, Resume drops,
// and fatal stops. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(c *graphConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnStageStart registers a hook invoked when each stage begins
// executing. The hook runs inside the stage's goroutine before its loop.
func WithOnStageStart(fn func(StageInfo)) Option {
	return func(c *graphConfig) {
		c.onStart = fn
	}
}

// WithOnStageDone registers a hook invoked when each stage terminates.
// The hook receives the stage's error (nil on clean drain) and
// wall-clock duration, and runs inside the stage's goroutine after its
// loop returns.
func WithOnStageDone(fn func(StageInfo, error, time.Duration)) Option {
	return func(c *graphConfig) {
		c.onDone = fn
	}
}

type stageConfig struct {
	decider Decider
}

// StageOption configures an individual stage at construction time.
//
// Stage options are accepted only by leaf stages ([Source], [Map],
// [FilterMap], [Sink]). [Broadcast] and the joins deliberately take
// none: resuming past a dropped element at a fan-out or fan-in point
// desynchronizes sibling branches and can deadlock a join, so the API
// does not offer it.
type StageOption func(*stageConfig)

// WithSupervisor attaches a recovery decision table to the stage. On an
// element-level failure the stage looks up the failure's kind in d:
// [Resume] discards the element and continues, [Stop] (and any kind not
// in the table) terminates the graph.
func WithSupervisor(d Decider) StageOption {
	return func(c *stageConfig) {
		c.decider = d
	}
}

func newStageConfig(opts []StageOption) stageConfig {
	var cfg stageConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
