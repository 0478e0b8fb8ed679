package tracing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

// DefaultJudgeModel is the model used by NewLLMJudge unless overridden.
const DefaultJudgeModel = "gpt-4o-mini"

// neutralScore substitutes when the judge call fails for any reason, so a
// judge outage never fails the traced function.
const neutralScore = 0.5

// JudgeModelTag is the run tag recording which model judged the run.
const JudgeModelTag = "llm.judge_model"

// grader turns a judging prompt into the judge model's raw reply.
type grader interface {
	grade(ctx context.Context, model, prompt string) (string, error)
}

type judge struct {
	model   string
	grader  grader
	logger  *zap.Logger
	tagOnce sync.Once
}

// JudgeOption configures NewLLMJudge.
type JudgeOption func(*judge)

// WithJudgeModel sets the judge model name.
func WithJudgeModel(model string) JudgeOption {
	return func(j *judge) { j.model = model }
}

// WithOpenAIClient uses an existing OpenAI client for judging.
func WithOpenAIClient(client openai.Client) JudgeOption {
	return func(j *judge) { j.grader = openAIGrader{client: client} }
}

// WithAnthropic judges with the Anthropic API instead of OpenAI, reading
// credentials from the environment.
func WithAnthropic() JudgeOption {
	return func(j *judge) { j.grader = anthropicGrader{client: anthropic.NewClient()} }
}

// WithAnthropicClient uses an existing Anthropic client for judging.
func WithAnthropicClient(client anthropic.Client) JudgeOption {
	return func(j *judge) { j.grader = anthropicGrader{client: client} }
}

// WithJudgeLogger sets the logger for judge failures.
func WithJudgeLogger(logger *zap.Logger) JudgeOption {
	return func(j *judge) { j.logger = logger }
}

// NewLLMJudge builds an LLM-as-judge evaluator. The judge rates each
// response 0-10 for relevance, completeness, and clarity; the score is
// normalized to 0-1 and reported as llm_judge_score. A failed judge call
// (network error, unparsable reply) is logged and scored 0.5.
func NewLLMJudge(opts ...JudgeOption) Evaluator {
	j := &judge{
		model:  DefaultJudgeModel,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.grader == nil {
		j.grader = openAIGrader{client: openai.NewClient()}
	}
	return j.evaluate
}

func (j *judge) evaluate(ctx context.Context, inputs map[string]any, output any) Scores {
	prompt := judgePrompt(queryText(inputs), responseText(output))

	score := neutralScore
	raw, err := j.grader.grade(ctx, j.model, prompt)
	if err == nil {
		var parsed float64
		parsed, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			score = clamp(parsed, 0, 10) / 10
		}
	}
	if err != nil {
		j.logger.Warn("judge scoring failed, using neutral score",
			zap.String("judge_model", j.model),
			zap.Error(err))
	}

	// Tag the current run with the judge model once; scores themselves
	// are strictly numeric.
	if r := CurrentRun(); r != nil {
		j.tagOnce.Do(func() {
			_ = r.SetTag(ctx, JudgeModelTag, j.model)
		})
	}

	return Scores{MetricLLMJudgeScore: score}
}

func judgePrompt(query, response string) string {
	return fmt.Sprintf(`Rate this response on a scale of 0-10.

Question: %s
Response: %s

Consider:
- Relevance: Does it answer the question?
- Completeness: Is the answer thorough?
- Clarity: Is it easy to understand?

Respond with only a number 0-10.`, query, response)
}

// queryText extracts the user query from the traced function's inputs,
// preferring the "query" argument, then "question".
func queryText(inputs map[string]any) string {
	if q, ok := inputs["query"]; ok {
		return anyString(q)
	}
	if q, ok := inputs["question"]; ok {
		return anyString(q)
	}
	return fmt.Sprint(inputs)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type openAIGrader struct {
	client openai.Client
}

func (g openAIGrader) grade(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(10),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("judge returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicGrader struct {
	client anthropic.Client
}

func (g anthropicGrader) grade(ctx context.Context, model, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   10,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("judge returned no text content")
}
