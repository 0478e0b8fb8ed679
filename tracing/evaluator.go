package tracing

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Metric names produced by the built-in evaluators.
const (
	MetricQualityScore   = "quality_score"
	MetricResponseLength = "response_length"
	MetricConfidence     = "confidence"
	MetricLatency        = "latency"
	MetricLLMJudgeScore  = "llm_judge_score"
)

// defaultQualityScore is the placeholder score the basic evaluator
// assigns; replace it with a real evaluation for production scoring.
const defaultQualityScore = 0.8

// Scores maps metric names to numeric values for one traced call.
type Scores map[string]float64

// Evaluator scores the output of a traced function. inputs holds the
// argument names and values the function was called with; output is its
// return value.
type Evaluator func(ctx context.Context, inputs map[string]any, output any) Scores

// NewEvaluator builds a basic evaluator producing the named metrics.
// Without arguments it produces quality_score and response_length.
func NewEvaluator(metrics ...string) Evaluator {
	if len(metrics) == 0 {
		metrics = []string{MetricQualityScore, MetricResponseLength}
	}
	selected := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		selected[m] = true
	}

	return func(ctx context.Context, inputs map[string]any, output any) Scores {
		scores := Scores{}

		if selected[MetricResponseLength] {
			scores[MetricResponseLength] = float64(utf8.RuneCountInString(responseText(output)))
		}

		if selected[MetricQualityScore] {
			scores[MetricQualityScore] = defaultQualityScore
		}

		if selected[MetricConfidence] {
			if m, ok := output.(map[string]any); ok {
				scores[MetricConfidence] = numericValue(m[MetricConfidence])
			}
		}

		return scores
	}
}

// responseText extracts the response text from a traced function's output.
// Map outputs are read through their "response" key, then "content";
// everything else is stringified.
func responseText(output any) string {
	switch v := output.(type) {
	case string:
		return v
	case map[string]any:
		if r, ok := v["response"]; ok {
			return anyString(r)
		}
		if c, ok := v["content"]; ok {
			return anyString(c)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func anyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func numericValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
