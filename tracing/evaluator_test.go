package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvaluator(t *testing.T) {
	ctx := context.Background()

	t.Run("string output", func(t *testing.T) {
		scores := NewEvaluator()(ctx, nil, "hello world")
		assert.Equal(t, Scores{
			MetricResponseLength: 11,
			MetricQualityScore:   0.8,
		}, scores)
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		scores := NewEvaluator(MetricResponseLength)(ctx, nil, "héllo")
		assert.Equal(t, 5.0, scores[MetricResponseLength])
	})

	t.Run("map output measures the response value", func(t *testing.T) {
		output := map[string]any{
			"response": "four",
			"model":    "gpt-4o-mini",
		}
		scores := NewEvaluator()(ctx, nil, output)
		assert.Equal(t, 4.0, scores[MetricResponseLength])
	})

	t.Run("map output falls back to content", func(t *testing.T) {
		output := map[string]any{"content": "seven77"}
		scores := NewEvaluator(MetricResponseLength)(ctx, nil, output)
		assert.Equal(t, 7.0, scores[MetricResponseLength])
	})

	t.Run("other outputs are stringified", func(t *testing.T) {
		scores := NewEvaluator(MetricResponseLength)(ctx, nil, 12345)
		assert.Equal(t, 5.0, scores[MetricResponseLength])
	})

	t.Run("confidence comes from map outputs only", func(t *testing.T) {
		withMap := NewEvaluator(MetricConfidence)(ctx, nil, map[string]any{"confidence": 0.9})
		assert.Equal(t, Scores{MetricConfidence: 0.9}, withMap)

		missing := NewEvaluator(MetricConfidence)(ctx, nil, map[string]any{})
		assert.Equal(t, Scores{MetricConfidence: 0.0}, missing)

		nonMap := NewEvaluator(MetricConfidence)(ctx, nil, "text")
		assert.Empty(t, nonMap)
	})

	t.Run("only requested metrics are produced", func(t *testing.T) {
		scores := NewEvaluator(MetricQualityScore)(ctx, nil, "anything")
		assert.Equal(t, Scores{MetricQualityScore: 0.8}, scores)
	})
}
