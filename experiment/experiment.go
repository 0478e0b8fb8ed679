// Package experiment sets up Domino-compatible experiment tracking:
// deployment-unique experiment naming, platform context tags, and
// best-effort framework auto-logging.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domino "github.com/dominodatalab/domino-go"
)

// DefaultBaseName is used when Setup is called with an empty base name.
const DefaultBaseName = "experiment"

// Name builds the deployment-unique experiment name for a base name.
// Experiment names must be unique across the entire deployment, not just
// one project, so the project and user are always appended.
func Name(env domino.Environment, base string) string {
	if base == "" {
		base = DefaultBaseName
	}
	project := env.Project
	if project == "" {
		project = "unknown"
	}
	user := env.User
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s", base, project, user)
}

// Setup makes the experiment derived from base the client's active
// experiment, creating it on the tracking server when needed. Returns the
// full experiment name.
func Setup(ctx context.Context, client *domino.Client, base string) (string, error) {
	name := Name(client.Environment(), base)
	if _, err := client.SetExperiment(ctx, name); err != nil {
		return "", err
	}
	client.Logger().Info("experiment set", zap.String("experiment", name))
	return name, nil
}

// LogContext writes the platform environment as run tags. Call it at the
// start of each run to capture the user, project, execution ID, and
// hardware tier.
func LogContext(ctx context.Context, client *domino.Client, runID string) error {
	return client.SetRunTags(ctx, runID, client.Environment().ContextTags())
}
