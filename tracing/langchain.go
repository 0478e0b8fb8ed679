package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// LangChainHandler records langchaingo LLM calls against the current run.
// Attach it to a model or chain via langchaingo's callback options. Like
// the client middlewares, it is inert until Setup(ctx, "langchain").
type LangChainHandler struct {
	callbacks.SimpleHandler

	logger *zap.Logger

	mu      sync.Mutex
	started time.Time
}

// NewLangChainHandler creates a handler logging through the global
// client's logger.
func NewLangChainHandler() *LangChainHandler {
	return &LangChainHandler{logger: pkgLogger()}
}

// HandleLLMGenerateContentStart marks the start of a generation.
func (h *LangChainHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	if !Enabled(FrameworkLangChain) {
		return
	}
	h.mu.Lock()
	h.started = time.Now()
	h.mu.Unlock()
}

// HandleLLMGenerateContentEnd records the finished generation.
func (h *LangChainHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if !Enabled(FrameworkLangChain) {
		return
	}

	h.mu.Lock()
	started := h.started
	h.started = time.Time{}
	h.mu.Unlock()

	var latency time.Duration
	if !started.IsZero() {
		latency = time.Since(started)
	}

	if r := CurrentRun(); r != nil {
		r.recordGeneration(ctx, generation{
			framework: FrameworkLangChain,
			latency:   latency,
		})
	}
}

// HandleLLMError logs generation failures.
func (h *LangChainHandler) HandleLLMError(ctx context.Context, err error) {
	if !Enabled(FrameworkLangChain) {
		return
	}
	h.logger.Warn("langchain generation failed", zap.Error(err))
}
