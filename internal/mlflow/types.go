package mlflow

// Wire types for the MLflow REST API (2.0). Only the subset of the
// tracking surface used by this SDK is modeled.

// Experiment is a named container for runs on the tracking server.
type Experiment struct {
	ExperimentID     string          `json:"experiment_id"`
	Name             string          `json:"name"`
	ArtifactLocation string          `json:"artifact_location,omitempty"`
	LifecycleStage   string          `json:"lifecycle_stage,omitempty"`
	CreationTime     int64           `json:"creation_time,omitempty"`
	LastUpdateTime   int64           `json:"last_update_time,omitempty"`
	Tags             []ExperimentTag `json:"tags,omitempty"`
}

// ExperimentTag is a key/value tag attached to an experiment.
type ExperimentTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Run is a single tracked execution.
type Run struct {
	Info RunInfo `json:"info"`
	Data RunData `json:"data"`
}

// RunInfo holds the identity and lifecycle state of a run.
type RunInfo struct {
	RunID        string `json:"run_id"`
	RunName      string `json:"run_name,omitempty"`
	ExperimentID string `json:"experiment_id"`
	Status       string `json:"status,omitempty"`
	StartTime    int64  `json:"start_time,omitempty"`
	EndTime      int64  `json:"end_time,omitempty"`
	ArtifactURI  string `json:"artifact_uri,omitempty"`
}

// RunData holds the metrics, params, and tags recorded on a run.
type RunData struct {
	Metrics []Metric `json:"metrics,omitempty"`
	Params  []Param  `json:"params,omitempty"`
	Tags    []RunTag `json:"tags,omitempty"`
}

// Metric is a numeric value logged against a run.
type Metric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// Param is an immutable string value logged against a run.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunTag is a mutable key/value tag attached to a run.
type RunTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Run status values accepted by runs/update.
const (
	RunStatusRunning  = "RUNNING"
	RunStatusFinished = "FINISHED"
	RunStatusFailed   = "FAILED"
	RunStatusKilled   = "KILLED"
)
