// Package mlflow implements the slice of the MLflow REST tracking API that
// the Domino platform exposes to workloads: experiment lookup and creation,
// run lifecycle, and tag/metric/param logging.
package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiPrefix = "/api/2.0/mlflow"

// Config holds the configuration for the tracking client.
type Config struct {
	// BaseURL is the tracking server URL, without the API prefix.
	BaseURL string

	// Token is the bearer token sent with every request. Optional.
	Token string

	// Timeout is the per-request timeout. Defaults to 10 seconds.
	Timeout time.Duration

	// MaxRetries is the number of attempts for retryable failures.
	// Defaults to 3.
	MaxRetries int

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// Client is a minimal MLflow tracking client.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a tracking client, filling in defaults for zero values.
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.UserAgent == "" {
		config.UserAgent = "domino-go"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// APIError is an error response decoded from the tracking server.
type APIError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("mlflow: %s: %s (http %d)", e.Code, e.Message, e.StatusCode)
}

// IsNotFound reports whether err is the tracking server's missing-resource
// error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "RESOURCE_DOES_NOT_EXIST" || apiErr.StatusCode == http.StatusNotFound
}

// GetExperimentByName fetches an experiment by its deployment-unique name.
func (c *Client) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	var out struct {
		Experiment Experiment `json:"experiment"`
	}
	query := url.Values{"experiment_name": {name}}
	if err := c.do(ctx, http.MethodGet, "/experiments/get-by-name", query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Experiment, nil
}

// CreateExperiment creates an experiment and returns its ID.
func (c *Client) CreateExperiment(ctx context.Context, name string) (string, error) {
	body := map[string]any{"name": name}
	var out struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/experiments/create", nil, body, &out); err != nil {
		return "", err
	}
	return out.ExperimentID, nil
}

// CreateRun starts a run in the given experiment.
func (c *Client) CreateRun(ctx context.Context, experimentID, runName string, tags []RunTag) (*Run, error) {
	body := map[string]any{
		"experiment_id": experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	var out struct {
		Run Run `json:"run"`
	}
	if err := c.do(ctx, http.MethodPost, "/runs/create", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Run, nil
}

// GetRun fetches a run by ID.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var out struct {
		Run Run `json:"run"`
	}
	query := url.Values{"run_id": {runID}}
	if err := c.do(ctx, http.MethodGet, "/runs/get", query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Run, nil
}

// UpdateRun sets the terminal status and end time of a run.
func (c *Client) UpdateRun(ctx context.Context, runID, status string, endTime time.Time) error {
	body := map[string]any{
		"run_id":   runID,
		"status":   status,
		"end_time": endTime.UnixMilli(),
	}
	return c.do(ctx, http.MethodPost, "/runs/update", nil, body, nil)
}

// SetTag sets a single tag on a run.
func (c *Client) SetTag(ctx context.Context, runID, key, value string) error {
	body := map[string]any{
		"run_id": runID,
		"key":    key,
		"value":  value,
	}
	return c.do(ctx, http.MethodPost, "/runs/set-tag", nil, body, nil)
}

// LogMetric logs a single metric value against a run.
func (c *Client) LogMetric(ctx context.Context, runID string, metric Metric) error {
	body := map[string]any{
		"run_id":    runID,
		"key":       metric.Key,
		"value":     metric.Value,
		"timestamp": metric.Timestamp,
		"step":      metric.Step,
	}
	return c.do(ctx, http.MethodPost, "/runs/log-metric", nil, body, nil)
}

// LogBatch logs metrics, params, and tags against a run in one call.
func (c *Client) LogBatch(ctx context.Context, runID string, metrics []Metric, params []Param, tags []RunTag) error {
	if len(metrics) == 0 && len(params) == 0 && len(tags) == 0 {
		return nil
	}
	body := map[string]any{"run_id": runID}
	if len(metrics) > 0 {
		body["metrics"] = metrics
	}
	if len(params) > 0 {
		body["params"] = params
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	return c.do(ctx, http.MethodPost, "/runs/log-batch", nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mlflow: marshaling %s request: %w", path, err)
		}
	}

	endpoint := c.config.BaseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("mlflow: %s: %w", path, ctx.Err())
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			cancel()
			return fmt.Errorf("mlflow: building %s request: %w", path, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.config.UserAgent)
		if c.config.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.Token)
		}

		resp, err := c.httpClient.Do(req)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				return fmt.Errorf("mlflow: %s: %w", path, ctx.Err())
			}
			time.Sleep(backoff(attempt))
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return fmt.Errorf("mlflow: reading %s response: %w", path, readErr)
			}
			if out != nil && len(data) > 0 {
				if err := json.Unmarshal(data, out); err != nil {
					return fmt.Errorf("mlflow: decoding %s response: %w", path, err)
				}
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := 5
			if h := resp.Header.Get("Retry-After"); h != "" {
				fmt.Sscanf(h, "%d", &retryAfter)
			}
			lastErr = fmt.Errorf("rate limited (429), retry after %ds", retryAfter)
			time.Sleep(time.Duration(retryAfter) * time.Second)
			continue

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(backoff(attempt))
			continue

		default:
			// Client error: decode and return without retrying.
			apiErr := &APIError{StatusCode: resp.StatusCode}
			if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
				apiErr.Message = string(data)
			}
			if apiErr.Code == "" {
				apiErr.Code = http.StatusText(resp.StatusCode)
			}
			return apiErr
		}
	}

	return fmt.Errorf("mlflow: %s failed after %d attempts: %w", path, c.config.MaxRetries, lastErr)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 500 * time.Millisecond
}
