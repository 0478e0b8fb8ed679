// Package domino provides the Go SDK for Domino experiment tracking and
// GenAI tracing. The platform's tracking backend speaks the MLflow REST
// protocol; this package wraps it with the platform's environment
// conventions.
//
// Example usage:
//
//	client, err := domino.New(ctx, domino.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	name, err := experiment.Setup(ctx, client, "my-model")
//	// ...
//	runID, err := client.CreateRun(ctx, "training-v1", nil)
//	_ = experiment.LogContext(ctx, client, runID)
package domino

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dominodatalab/domino-go/internal/mlflow"
)

// Version is the SDK version reported in the User-Agent header.
const Version = "0.1.0"

// DefaultTrackingURI is used when neither the config nor the environment
// names a tracking server.
const DefaultTrackingURI = "http://localhost:5000"

// Run status values for EndRun.
const (
	RunStatusFinished = mlflow.RunStatusFinished
	RunStatusFailed   = mlflow.RunStatusFailed
	RunStatusKilled   = mlflow.RunStatusKilled
)

// Config holds the configuration for the Domino client.
type Config struct {
	// TrackingURI is the tracking server URL. Defaults to the
	// MLFLOW_TRACKING_URI environment variable.
	TrackingURI string

	// APIKey is the bearer token for the tracking server. Defaults to the
	// DOMINO_USER_API_KEY environment variable.
	APIKey string

	// Enabled controls whether tracking calls are sent. Defaults to true.
	// A disabled client turns every operation into a no-op.
	Enabled *bool

	// Timeout is the per-request timeout. Defaults to 10 seconds.
	Timeout time.Duration

	// MaxRetries is the number of attempts for retryable request
	// failures. Defaults to 3.
	MaxRetries int

	// Logger receives SDK diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is the entry point for tracking operations. It holds the detected
// platform environment and the active experiment.
type Client struct {
	config Config
	env    Environment
	api    *mlflow.Client
	logger *zap.Logger

	mu             sync.Mutex
	experimentID   string
	experimentName string
}

// New creates a client, detecting the platform environment and filling in
// defaults for zero config values.
func New(ctx context.Context, config Config) (*Client, error) {
	env, err := DetectEnvironment(ctx)
	if err != nil {
		return nil, fmt.Errorf("domino: detecting environment: %w", err)
	}

	if config.TrackingURI == "" {
		config.TrackingURI = env.TrackingURI
	}
	if config.TrackingURI == "" {
		config.TrackingURI = DefaultTrackingURI
	}
	if config.APIKey == "" {
		config.APIKey = env.APIKey
	}
	if config.Enabled == nil {
		enabled := true
		config.Enabled = &enabled
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	c := &Client{
		config: config,
		env:    env,
		logger: config.Logger,
		api: mlflow.New(mlflow.Config{
			BaseURL:    config.TrackingURI,
			Token:      config.APIKey,
			Timeout:    config.Timeout,
			MaxRetries: config.MaxRetries,
			UserAgent:  "domino-go/" + Version,
		}),
	}

	SetGlobalClient(c)

	return c, nil
}

// Enabled returns whether tracking is enabled.
func (c *Client) Enabled() bool {
	return c.config.Enabled != nil && *c.config.Enabled
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// Environment returns the detected platform environment.
func (c *Client) Environment() Environment {
	return c.env
}

// SetExperiment makes the named experiment the active one, creating it on
// the tracking server when it does not exist yet. Returns the experiment ID.
func (c *Client) SetExperiment(ctx context.Context, name string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	var id string
	exp, err := c.api.GetExperimentByName(ctx, name)
	switch {
	case err == nil:
		id = exp.ExperimentID
	case mlflow.IsNotFound(err):
		id, err = c.api.CreateExperiment(ctx, name)
		if err != nil {
			return "", fmt.Errorf("domino: creating experiment %q: %w", name, err)
		}
		c.logger.Info("experiment created",
			zap.String("experiment", name),
			zap.String("experiment_id", id))
	default:
		return "", fmt.Errorf("domino: looking up experiment %q: %w", name, err)
	}

	c.mu.Lock()
	c.experimentID = id
	c.experimentName = name
	c.mu.Unlock()

	return id, nil
}

// ActiveExperiment returns the ID and name of the active experiment, or
// empty strings when none is set.
func (c *Client) ActiveExperiment() (id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.experimentID, c.experimentName
}

// CreateRun starts a run under the active experiment and returns its ID.
func (c *Client) CreateRun(ctx context.Context, name string, tags map[string]string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	experimentID, _ := c.ActiveExperiment()
	if experimentID == "" {
		return "", errors.New("domino: no active experiment, call experiment.Setup first")
	}

	run, err := c.api.CreateRun(ctx, experimentID, name, runTags(tags))
	if err != nil {
		return "", fmt.Errorf("domino: creating run %q: %w", name, err)
	}

	c.logger.Info("run started",
		zap.String("run_id", run.Info.RunID),
		zap.String("run_name", name))

	return run.Info.RunID, nil
}

// SetRunTags writes tags to a run.
func (c *Client) SetRunTags(ctx context.Context, runID string, tags map[string]string) error {
	if !c.Enabled() || runID == "" || len(tags) == 0 {
		return nil
	}
	if err := c.api.LogBatch(ctx, runID, nil, nil, runTags(tags)); err != nil {
		return fmt.Errorf("domino: setting run tags: %w", err)
	}
	return nil
}

// LogParams writes immutable params to a run.
func (c *Client) LogParams(ctx context.Context, runID string, params map[string]string) error {
	if !c.Enabled() || runID == "" || len(params) == 0 {
		return nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	wire := make([]mlflow.Param, 0, len(params))
	for _, k := range keys {
		wire = append(wire, mlflow.Param{Key: k, Value: params[k]})
	}
	if err := c.api.LogBatch(ctx, runID, nil, wire, nil); err != nil {
		return fmt.Errorf("domino: logging params: %w", err)
	}
	return nil
}

// LogMetrics writes numeric metrics to a run at the given step.
func (c *Client) LogMetrics(ctx context.Context, runID string, metrics map[string]float64, step int64) error {
	if !c.Enabled() || runID == "" || len(metrics) == 0 {
		return nil
	}

	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UnixMilli()
	wire := make([]mlflow.Metric, 0, len(metrics))
	for _, k := range keys {
		wire = append(wire, mlflow.Metric{
			Key:       k,
			Value:     metrics[k],
			Timestamp: now,
			Step:      step,
		})
	}
	if err := c.api.LogBatch(ctx, runID, wire, nil, nil); err != nil {
		return fmt.Errorf("domino: logging metrics: %w", err)
	}
	return nil
}

// EndRun marks a run terminated with the given status.
func (c *Client) EndRun(ctx context.Context, runID, status string) error {
	if !c.Enabled() || runID == "" {
		return nil
	}
	if err := c.api.UpdateRun(ctx, runID, status, time.Now()); err != nil {
		return fmt.Errorf("domino: ending run: %w", err)
	}
	c.logger.Info("run ended",
		zap.String("run_id", runID),
		zap.String("status", status))
	return nil
}

func runTags(tags map[string]string) []mlflow.RunTag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	wire := make([]mlflow.RunTag, 0, len(tags))
	for _, k := range keys {
		wire = append(wire, mlflow.RunTag{Key: k, Value: tags[k]})
	}
	return wire
}
