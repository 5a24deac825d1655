package logging

import (
	"log/slog"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// LoggerHook creates per-run loggers by wrapping a base logger.
// The orchestrator stays generic; capturing is opt-in through an
// implementation of this interface.
type LoggerHook interface {
	// LoggerForRun wraps the base logger to create a scenario-run-specific logger.
	LoggerForRun(baseLogger *slog.Logger, key scenario.Key) *slog.Logger
}

// CapturingLoggerHook creates loggers that capture logs via CapturingHandler.
type CapturingLoggerHook struct {
	collector *LogCollector
}

// NewCapturingLoggerHook creates a provider that captures all scenario run logs.
func NewCapturingLoggerHook(collector *LogCollector) LoggerHook {
	return &CapturingLoggerHook{
		collector: collector,
	}
}

// LoggerForRun creates a run-specific logger with capturing enabled.
// Each call wraps the base logger with a CapturingHandler that tags logs with the run key.
func (p *CapturingLoggerHook) LoggerForRun(baseLogger *slog.Logger, key scenario.Key) *slog.Logger {
	capturingHandler := NewCapturingHandler(
		baseLogger.Handler(),
		p.collector,
		key,
	)
	return slog.New(capturingHandler)
}
