// Package tracing enables automatic tracing for LLM client libraries and
// builds evaluator callbacks that score the output of traced functions.
//
// Example usage:
//
//	if err := tracing.Setup(ctx, "openai"); err != nil {
//		log.Fatal(err)
//	}
//	client := openai.NewClient(option.WithMiddleware(tracing.OpenAIMiddleware()))
//
//	run, _ := tracing.StartRun(ctx, dominoClient, tracing.RunOptions{
//		Name:           "agent-run",
//		SummaryMetrics: tracing.AggregationMetrics("quality_score", "response_length"),
//	})
//	agent := run.Traced("my_agent", tracing.NewEvaluator(), callModel)
//	out, err := agent(ctx, map[string]any{"query": "Hello"})
//	run.End(ctx, err)
package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	domino "github.com/dominodatalab/domino-go"
	"github.com/dominodatalab/domino-go/internal/autolog"
)

// Framework names accepted by Setup.
const (
	FrameworkOpenAI    = "openai"
	FrameworkAnthropic = "anthropic"
	FrameworkLangChain = "langchain"
)

var (
	enabledMu sync.RWMutex
	enabledBy = make(map[string]bool)
)

// llmInstrumenter wires an LLM framework into the shared auto-logging
// registry. Enabling it arms the corresponding middleware or handler;
// until then they pass calls through untouched.
type llmInstrumenter struct {
	framework string
}

func (i llmInstrumenter) Framework() string { return i.framework }

func (i llmInstrumenter) Enable(ctx context.Context) error {
	enabledMu.Lock()
	enabledBy[i.framework] = true
	enabledMu.Unlock()
	return nil
}

func init() {
	for _, framework := range []string{FrameworkOpenAI, FrameworkAnthropic, FrameworkLangChain} {
		autolog.Default.Register(llmInstrumenter{framework: framework})
	}
}

// Setup enables auto-tracing for one LLM framework. The framework must be
// one of "openai", "anthropic", or "langchain"; anything else is an error.
func Setup(ctx context.Context, framework string) error {
	switch framework {
	case FrameworkOpenAI, FrameworkAnthropic, FrameworkLangChain:
	default:
		return fmt.Errorf("tracing: unknown framework %q: use %q, %q, or %q",
			framework, FrameworkOpenAI, FrameworkAnthropic, FrameworkLangChain)
	}

	inst, ok := autolog.Default.Get(framework)
	if !ok {
		return fmt.Errorf("tracing: framework %q has no registered integration", framework)
	}
	if err := inst.Enable(ctx); err != nil {
		return fmt.Errorf("tracing: enabling %s auto-tracing: %w", framework, err)
	}

	pkgLogger().Info("auto-tracing enabled", zap.String("framework", framework))
	return nil
}

// Enabled reports whether auto-tracing was set up for the framework.
func Enabled(framework string) bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return enabledBy[framework]
}

// reset disarms all frameworks. Test hook.
func reset() {
	enabledMu.Lock()
	enabledBy = make(map[string]bool)
	enabledMu.Unlock()
}

func pkgLogger() *zap.Logger {
	if c := domino.GetGlobalClient(); c != nil {
		return c.Logger()
	}
	return zap.NewNop()
}
