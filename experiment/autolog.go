package experiment

import (
	"context"

	"go.uber.org/zap"

	domino "github.com/dominodatalab/domino-go"
	"github.com/dominodatalab/domino-go/internal/autolog"
)

// RegisterAutologger adds a framework integration to the auto-logging
// registry. Integration packages call this from init so that importing
// them is enough to make the framework eligible.
func RegisterAutologger(i autolog.Instrumenter) {
	autolog.Default.Register(i)
}

// EnableAutolog enables automatic instrumentation for every framework
// whose integration is linked into the binary. Frameworks without a
// registered integration are skipped; an integration that fails to enable
// is logged and skipped. Returns the names of the frameworks enabled.
func EnableAutolog(ctx context.Context) []string {
	log := zap.NewNop()
	if c := domino.GetGlobalClient(); c != nil {
		log = c.Logger()
	}

	var enabled []string
	for _, inst := range autolog.Default.All() {
		if err := inst.Enable(ctx); err != nil {
			log.Warn("auto-logging unavailable",
				zap.String("framework", inst.Framework()),
				zap.Error(err))
			continue
		}
		log.Info("auto-logging enabled", zap.String("framework", inst.Framework()))
		enabled = append(enabled, inst.Framework())
	}
	return enabled
}
