package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeGrader struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGrader) grade(ctx context.Context, model, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func newTestJudge(g grader) Evaluator {
	j := &judge{model: DefaultJudgeModel, grader: g, logger: zap.NewNop()}
	return j.evaluate
}

func TestLLMJudge(t *testing.T) {
	ctx := context.Background()
	inputs := map[string]any{"query": "What is machine learning?"}

	t.Run("normalizes the raw score", func(t *testing.T) {
		evaluate := newTestJudge(&fakeGrader{reply: "8"})
		scores := evaluate(ctx, inputs, "ML is...")
		assert.Equal(t, Scores{MetricLLMJudgeScore: 0.8}, scores)
	})

	t.Run("trims whitespace from the reply", func(t *testing.T) {
		evaluate := newTestJudge(&fakeGrader{reply: " 7 \n"})
		scores := evaluate(ctx, inputs, "ML is...")
		assert.Equal(t, 0.7, scores[MetricLLMJudgeScore])
	})

	t.Run("clamps out-of-range scores", func(t *testing.T) {
		high := newTestJudge(&fakeGrader{reply: "15"})
		assert.Equal(t, 1.0, high(ctx, inputs, "out")[MetricLLMJudgeScore])

		low := newTestJudge(&fakeGrader{reply: "-3"})
		assert.Equal(t, 0.0, low(ctx, inputs, "out")[MetricLLMJudgeScore])
	})

	t.Run("grading failure yields the neutral score", func(t *testing.T) {
		evaluate := newTestJudge(&fakeGrader{err: errors.New("connection refused")})
		scores := evaluate(ctx, inputs, "out")
		assert.Equal(t, Scores{MetricLLMJudgeScore: 0.5}, scores)
	})

	t.Run("unparsable reply yields the neutral score", func(t *testing.T) {
		evaluate := newTestJudge(&fakeGrader{reply: "I'd say it deserves an 8"})
		scores := evaluate(ctx, inputs, "out")
		assert.Equal(t, Scores{MetricLLMJudgeScore: 0.5}, scores)
	})

	t.Run("prompt carries the query and the response text", func(t *testing.T) {
		g := &fakeGrader{reply: "9"}
		evaluate := newTestJudge(g)

		evaluate(ctx, inputs, map[string]any{"response": "Statistical learning."})
		assert.Contains(t, g.lastPrompt, "What is machine learning?")
		assert.Contains(t, g.lastPrompt, "Statistical learning.")
	})

	t.Run("question input is an accepted alias", func(t *testing.T) {
		g := &fakeGrader{reply: "9"}
		evaluate := newTestJudge(g)

		evaluate(ctx, map[string]any{"question": "Why?"}, "Because.")
		assert.Contains(t, g.lastPrompt, "Why?")
	})
}

func TestNewLLMJudgeOptions(t *testing.T) {
	j := &judge{model: DefaultJudgeModel, logger: zap.NewNop()}
	WithJudgeModel("gpt-4o")(j)
	assert.Equal(t, "gpt-4o", j.model)
}
