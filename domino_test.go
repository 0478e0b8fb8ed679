package domino

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPlatformEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DOMINO_STARTING_USERNAME", "ada")
	t.Setenv("DOMINO_PROJECT_NAME", "churn")
	t.Setenv("DOMINO_RUN_ID", "exec-123")
	t.Setenv("DOMINO_HARDWARE_TIER_NAME", "gpu-small")
}

func TestNew(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		setPlatformEnv(t)
		t.Setenv("MLFLOW_TRACKING_URI", "http://tracking.internal")

		client, err := New(context.Background(), Config{})
		require.NoError(t, err)

		assert.True(t, client.Enabled())
		assert.Equal(t, "http://tracking.internal", client.config.TrackingURI)
		assert.Equal(t, 10*time.Second, client.config.Timeout)
		assert.Equal(t, 3, client.config.MaxRetries)
		assert.NotNil(t, client.Logger())
	})

	t.Run("config overrides environment", func(t *testing.T) {
		setPlatformEnv(t)
		t.Setenv("MLFLOW_TRACKING_URI", "http://tracking.internal")

		client, err := New(context.Background(), Config{TrackingURI: "http://other"})
		require.NoError(t, err)
		assert.Equal(t, "http://other", client.config.TrackingURI)
	})

	t.Run("sets global client", func(t *testing.T) {
		setPlatformEnv(t)
		client, err := New(context.Background(), Config{})
		require.NoError(t, err)
		assert.Same(t, client, GetGlobalClient())
	})
}

func TestSetExperiment(t *testing.T) {
	t.Run("creates missing experiment", func(t *testing.T) {
		setPlatformEnv(t)
		var created bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/2.0/mlflow/experiments/get-by-name":
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{
					"error_code": "RESOURCE_DOES_NOT_EXIST",
					"message":    "not found",
				})
			case "/api/2.0/mlflow/experiments/create":
				created = true
				json.NewEncoder(w).Encode(map[string]any{"experiment_id": "42"})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		t.Cleanup(srv.Close)

		client, err := New(context.Background(), Config{TrackingURI: srv.URL})
		require.NoError(t, err)

		id, err := client.SetExperiment(context.Background(), "iris-churn-ada")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "42", id)

		gotID, gotName := client.ActiveExperiment()
		assert.Equal(t, "42", gotID)
		assert.Equal(t, "iris-churn-ada", gotName)
	})

	t.Run("reuses existing experiment", func(t *testing.T) {
		setPlatformEnv(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/2.0/mlflow/experiments/get-by-name", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"experiment": map[string]any{"experiment_id": "7", "name": "existing"},
			})
		}))
		t.Cleanup(srv.Close)

		client, err := New(context.Background(), Config{TrackingURI: srv.URL})
		require.NoError(t, err)

		id, err := client.SetExperiment(context.Background(), "existing")
		require.NoError(t, err)
		assert.Equal(t, "7", id)
	})
}

func TestCreateRun(t *testing.T) {
	t.Run("requires an active experiment", func(t *testing.T) {
		setPlatformEnv(t)
		client, err := New(context.Background(), Config{})
		require.NoError(t, err)

		_, err = client.CreateRun(context.Background(), "r", nil)
		assert.ErrorContains(t, err, "no active experiment")
	})
}

func TestDisabledClient(t *testing.T) {
	setPlatformEnv(t)
	enabled := false
	client, err := New(context.Background(), Config{
		TrackingURI: "http://unreachable.invalid",
		Enabled:     &enabled,
	})
	require.NoError(t, err)

	ctx := context.Background()

	id, err := client.SetExperiment(ctx, "anything")
	require.NoError(t, err)
	assert.Empty(t, id)

	runID, err := client.CreateRun(ctx, "r", nil)
	require.NoError(t, err)
	assert.Empty(t, runID)

	require.NoError(t, client.SetRunTags(ctx, runID, map[string]string{"k": "v"}))
	require.NoError(t, client.LogMetrics(ctx, runID, map[string]float64{"m": 1}, 0))
	require.NoError(t, client.EndRun(ctx, runID, RunStatusFinished))
}
