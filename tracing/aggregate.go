package tracing

// Aggregation is how per-call scores roll up into a run summary metric.
type Aggregation string

const (
	AggregationMean Aggregation = "mean"
	AggregationMax  Aggregation = "max"
	AggregationMin  Aggregation = "min"
)

// SummaryMetric pairs a metric name with an aggregation kind.
type SummaryMetric struct {
	Metric      string
	Aggregation Aggregation
}

// Key returns the run metric key the summary is logged under.
func (m SummaryMetric) Key() string {
	return m.Metric + "_" + string(m.Aggregation)
}

// AggregationMetrics builds the default summary aggregations for the
// named metrics. Every metric gets a mean; length- and latency-like
// metrics additionally a max, score-like metrics additionally a min.
// Without arguments it covers quality_score, response_length, and
// confidence.
func AggregationMetrics(names ...string) []SummaryMetric {
	if len(names) == 0 {
		names = []string{MetricQualityScore, MetricResponseLength, MetricConfidence}
	}

	summaries := make([]SummaryMetric, 0, 2*len(names))
	for _, name := range names {
		summaries = append(summaries, SummaryMetric{Metric: name, Aggregation: AggregationMean})
		switch name {
		case MetricResponseLength, MetricLatency:
			summaries = append(summaries, SummaryMetric{Metric: name, Aggregation: AggregationMax})
		}
		switch name {
		case MetricQualityScore, MetricConfidence:
			summaries = append(summaries, SummaryMetric{Metric: name, Aggregation: AggregationMin})
		}
	}
	return summaries
}

func (a Aggregation) apply(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch a {
	case AggregationMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case AggregationMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	default:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}
