package tracing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"
)

// generation is one instrumented LLM call.
type generation struct {
	framework string
	model     string
	latency   time.Duration
}

// OpenAIMiddleware returns a client middleware for openai-go that records
// every API call against the current run. It is inert until
// Setup(ctx, "openai") has been called and while no run is active.
func OpenAIMiddleware() option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		if !Enabled(FrameworkOpenAI) {
			return next(req)
		}
		model := requestModel(req)
		start := time.Now()
		resp, err := next(req)
		if err == nil {
			observe(req, generation{
				framework: FrameworkOpenAI,
				model:     model,
				latency:   time.Since(start),
			})
		}
		return resp, err
	}
}

// AnthropicMiddleware returns the equivalent middleware for
// anthropic-sdk-go clients.
func AnthropicMiddleware() anthropicoption.Middleware {
	return func(req *http.Request, next anthropicoption.MiddlewareNext) (*http.Response, error) {
		if !Enabled(FrameworkAnthropic) {
			return next(req)
		}
		model := requestModel(req)
		start := time.Now()
		resp, err := next(req)
		if err == nil {
			observe(req, generation{
				framework: FrameworkAnthropic,
				model:     model,
				latency:   time.Since(start),
			})
		}
		return resp, err
	}
}

func observe(req *http.Request, g generation) {
	if r := CurrentRun(); r != nil {
		r.recordGeneration(req.Context(), g)
	}
}

// requestModel pulls the model name out of the request body without
// consuming it.
func requestModel(req *http.Request) string {
	if req.Body == nil {
		return ""
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var body struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Model
}
