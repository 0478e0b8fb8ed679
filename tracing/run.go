package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	domino "github.com/dominodatalab/domino-go"
)

// TracedFunc is the shape of a function a Run can trace: named inputs in,
// one output and an error out.
type TracedFunc func(ctx context.Context, inputs map[string]any) (any, error)

// RunOptions holds options for starting a tracked run.
type RunOptions struct {
	// Name is the run name. Defaults to a generated one.
	Name string

	// AgentConfigPath points at an agent configuration file (YAML).
	// Its settings are logged as run params.
	AgentConfigPath string

	// SummaryMetrics are the aggregations computed over collected scores
	// when the run ends.
	SummaryMetrics []SummaryMetric

	// Tags are extra run tags, merged over the platform context tags.
	Tags map[string]string
}

// Run is a tracked execution that collects evaluator scores from traced
// calls and rolls them up into summary metrics when it ends.
type Run struct {
	client *domino.Client
	id     string
	name   string
	logger *zap.Logger

	summary []SummaryMetric

	mu     sync.Mutex
	scores map[string][]float64
	step   int64
	ended  bool
}

var (
	currentMu  sync.RWMutex
	currentRun *Run
)

// CurrentRun returns the most recently started run that has not ended,
// or nil.
func CurrentRun() *Run {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return currentRun
}

// StartRun creates a tracked run under the client's active experiment,
// writes the platform context tags, and makes it the current run.
func StartRun(ctx context.Context, client *domino.Client, opts RunOptions) (*Run, error) {
	if opts.Name == "" {
		opts.Name = "run-" + uuid.NewString()[:8]
	}

	tags := client.Environment().ContextTags()
	for k, v := range opts.Tags {
		tags[k] = v
	}

	runID, err := client.CreateRun(ctx, opts.Name, tags)
	if err != nil {
		return nil, err
	}

	run := &Run{
		client:  client,
		id:      runID,
		name:    opts.Name,
		logger:  client.Logger(),
		summary: opts.SummaryMetrics,
		scores:  make(map[string][]float64),
	}

	if opts.AgentConfigPath != "" {
		if err := run.logAgentConfig(ctx, opts.AgentConfigPath); err != nil {
			return nil, err
		}
	}

	currentMu.Lock()
	currentRun = run
	currentMu.Unlock()

	return run, nil
}

// ID returns the tracking run ID. Empty when the client is disabled.
func (r *Run) ID() string {
	return r.id
}

// Name returns the run name.
func (r *Run) Name() string {
	return r.name
}

// SetTag writes a tag to the run.
func (r *Run) SetTag(ctx context.Context, key, value string) error {
	return r.client.SetRunTags(ctx, r.id, map[string]string{key: value})
}

// LogMetric logs a single metric value against the run.
func (r *Run) LogMetric(ctx context.Context, name string, value float64) error {
	return r.client.LogMetrics(ctx, r.id, map[string]float64{name: value}, 0)
}

// Traced wraps fn so every call is timed, scored by the evaluator, and
// logged against the run. Scores are kept for summary aggregation at End.
// A nil evaluator records latency only.
func (r *Run) Traced(name string, evaluator Evaluator, fn TracedFunc) TracedFunc {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		start := time.Now()
		output, err := fn(ctx, inputs)
		latency := time.Since(start).Seconds()

		if err != nil {
			r.logger.Warn("traced call failed",
				zap.String("name", name),
				zap.Error(err))
			return output, err
		}

		scores := Scores{MetricLatency: latency}
		if evaluator != nil {
			for k, v := range evaluator(ctx, inputs, output) {
				scores[k] = v
			}
		}
		r.record(ctx, name, scores)

		return output, nil
	}
}

func (r *Run) record(ctx context.Context, name string, scores Scores) {
	r.mu.Lock()
	r.step++
	step := r.step
	for k, v := range scores {
		r.scores[k] = append(r.scores[k], v)
	}
	r.mu.Unlock()

	if err := r.client.LogMetrics(ctx, r.id, map[string]float64(scores), step); err != nil {
		r.logger.Warn("logging scores failed",
			zap.String("name", name),
			zap.Error(err))
	}
	r.logger.Debug("traced call scored",
		zap.String("name", name),
		zap.Int64("step", step))
}

// recordGeneration logs one instrumented LLM call against the run.
func (r *Run) recordGeneration(ctx context.Context, g generation) {
	r.mu.Lock()
	r.step++
	step := r.step
	r.mu.Unlock()

	metrics := map[string]float64{
		g.framework + ".latency_ms": float64(g.latency.Milliseconds()),
	}
	if err := r.client.LogMetrics(ctx, r.id, metrics, step); err != nil {
		r.logger.Warn("logging generation failed", zap.Error(err))
	}

	tags := map[string]string{"llm.framework": g.framework}
	if g.model != "" {
		tags["llm.model"] = g.model
	}
	if err := r.client.SetRunTags(ctx, r.id, tags); err != nil {
		r.logger.Warn("tagging generation failed", zap.Error(err))
	}
}

// End computes the configured summary metrics from the collected scores,
// logs them, and terminates the run: FINISHED when runErr is nil, FAILED
// otherwise. End is idempotent.
func (r *Run) End(ctx context.Context, runErr error) error {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return nil
	}
	r.ended = true
	summary := summarize(r.scores, r.summary)
	r.mu.Unlock()

	currentMu.Lock()
	if currentRun == r {
		currentRun = nil
	}
	currentMu.Unlock()

	if err := r.client.LogMetrics(ctx, r.id, summary, 0); err != nil {
		return fmt.Errorf("tracing: logging summary metrics: %w", err)
	}

	status := domino.RunStatusFinished
	if runErr != nil {
		status = domino.RunStatusFailed
	}
	return r.client.EndRun(ctx, r.id, status)
}

func summarize(scores map[string][]float64, summary []SummaryMetric) map[string]float64 {
	out := make(map[string]float64, len(summary))
	for _, m := range summary {
		values, ok := scores[m.Metric]
		if !ok {
			continue
		}
		out[m.Key()] = m.Aggregation.apply(values)
	}
	return out
}

func (r *Run) logAgentConfig(ctx context.Context, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("tracing: reading agent config %s: %w", path, err)
	}

	params := make(map[string]string)
	for _, key := range v.AllKeys() {
		params["agent."+key] = v.GetString(key)
	}
	return r.client.LogParams(ctx, r.id, params)
}
