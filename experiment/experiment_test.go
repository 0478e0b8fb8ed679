package experiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domino "github.com/dominodatalab/domino-go"
)

func TestName(t *testing.T) {
	t.Run("concatenates base, project, and user", func(t *testing.T) {
		env := domino.Environment{User: "ada", Project: "churn"}
		assert.Equal(t, "iris-churn-ada", Name(env, "iris"))
	})

	t.Run("empty base falls back to default", func(t *testing.T) {
		env := domino.Environment{User: "ada", Project: "churn"}
		assert.Equal(t, "experiment-churn-ada", Name(env, ""))
	})

	t.Run("missing environment yields unknown", func(t *testing.T) {
		assert.Equal(t, "iris-unknown-unknown", Name(domino.Environment{}, "iris"))
	})
}

// fakeTracking is a minimal tracking server recording run tag writes.
type fakeTracking struct {
	mu      sync.Mutex
	created []string
	tags    map[string]string
}

func (f *fakeTracking) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/api/2.0/mlflow/experiments/get-by-name":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error_code": "RESOURCE_DOES_NOT_EXIST"})
		case "/api/2.0/mlflow/experiments/create":
			var body struct {
				Name string `json:"name"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.created = append(f.created, body.Name)
			json.NewEncoder(w).Encode(map[string]any{"experiment_id": "42"})
		case "/api/2.0/mlflow/runs/create":
			json.NewEncoder(w).Encode(map[string]any{
				"run": map[string]any{"info": map[string]any{"run_id": "abc123"}},
			})
		case "/api/2.0/mlflow/runs/log-batch":
			var body struct {
				Tags []struct {
					Key   string `json:"key"`
					Value string `json:"value"`
				} `json:"tags"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if f.tags == nil {
				f.tags = make(map[string]string)
			}
			for _, tag := range body.Tags {
				f.tags[tag.Key] = tag.Value
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *domino.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("DOMINO_STARTING_USERNAME", "ada")
	t.Setenv("DOMINO_PROJECT_NAME", "churn")
	t.Setenv("DOMINO_RUN_ID", "exec-123")
	t.Setenv("DOMINO_HARDWARE_TIER_NAME", "gpu-small")

	client, err := domino.New(context.Background(), domino.Config{TrackingURI: srv.URL})
	require.NoError(t, err)
	return client
}

func TestSetup(t *testing.T) {
	fake := &fakeTracking{}
	client := newTestClient(t, fake.handler(t))

	name, err := Setup(context.Background(), client, "iris")
	require.NoError(t, err)
	assert.Equal(t, "iris-churn-ada", name)
	assert.Equal(t, []string{"iris-churn-ada"}, fake.created)

	id, active := client.ActiveExperiment()
	assert.Equal(t, "42", id)
	assert.Equal(t, "iris-churn-ada", active)
}

func TestLogContext(t *testing.T) {
	fake := &fakeTracking{}
	client := newTestClient(t, fake.handler(t))

	_, err := Setup(context.Background(), client, "iris")
	require.NoError(t, err)
	runID, err := client.CreateRun(context.Background(), "training-v1", nil)
	require.NoError(t, err)

	require.NoError(t, LogContext(context.Background(), client, runID))

	assert.Equal(t, map[string]string{
		"domino.user":          "ada",
		"domino.project":       "churn",
		"domino.run_id":        "exec-123",
		"domino.hardware_tier": "gpu-small",
	}, fake.tags)
}
