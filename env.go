package domino

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Tag keys written by LogContext-style operations. Every tracked run
// carries exactly these four platform tags.
const (
	TagUser         = "domino.user"
	TagProject      = "domino.project"
	TagRunID        = "domino.run_id"
	TagHardwareTier = "domino.hardware_tier"
)

// unknownValue substitutes for any platform variable the environment does
// not provide.
const unknownValue = "unknown"

// Environment describes the platform execution context, as injected into
// every workload through environment variables.
type Environment struct {
	// User is the user who started the workload.
	User string `env:"DOMINO_STARTING_USERNAME, default=unknown"`

	// Project is the project the workload runs in.
	Project string `env:"DOMINO_PROJECT_NAME, default=unknown"`

	// RunID is the platform execution ID (distinct from a tracking run ID).
	RunID string `env:"DOMINO_RUN_ID, default=unknown"`

	// HardwareTier is the hardware tier the workload is scheduled on.
	HardwareTier string `env:"DOMINO_HARDWARE_TIER_NAME, default=unknown"`

	// TrackingURI is the tracking server the platform points workloads at.
	TrackingURI string `env:"MLFLOW_TRACKING_URI"`

	// APIKey authenticates against the tracking server.
	APIKey string `env:"DOMINO_USER_API_KEY"`
}

// DetectEnvironment reads the platform environment variables.
func DetectEnvironment(ctx context.Context) (Environment, error) {
	var env Environment
	if err := envconfig.Process(ctx, &env); err != nil {
		return Environment{}, err
	}
	return env, nil
}

// ContextTags returns the four fixed platform tags for run logging.
func (e Environment) ContextTags() map[string]string {
	return map[string]string{
		TagUser:         orUnknown(e.User),
		TagProject:      orUnknown(e.Project),
		TagRunID:        orUnknown(e.RunID),
		TagHardwareTier: orUnknown(e.HardwareTier),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
