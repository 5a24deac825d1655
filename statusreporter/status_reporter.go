package statusreporter

import (
	"log/slog"
	"sync"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// StatusReporter tracks the current progress of each scenario run.
//
// The runner updates it as steps execute, and anything with a reference can
// snapshot the board, for example to show progress while a long benchmark is
// in flight.
//
// THREAD SAFETY:
// All methods are thread-safe and can be called from concurrent goroutines.
type StatusReporter struct {
	statuses map[scenario.Key]string
	logger   *slog.Logger
	mu       sync.RWMutex
}

// New creates a new StatusReporter.
// Each status change is automatically logged at Info level.
func New(logger *slog.Logger) *StatusReporter {
	return &StatusReporter{
		statuses: make(map[scenario.Key]string),
		logger:   logger,
	}
}

// SetStatus updates the current status for a scenario run.
//
// The status string should describe what the run is currently doing,
// for example: "executing step 3/5" or "waiting on scoring".
func (r *StatusReporter) SetStatus(key scenario.Key, status string) {
	// Log status change (outside the lock to avoid holding it during I/O)
	r.logger.Info(status, "scenario_id", key.ScenarioID, "platform_id", key.PlatformID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[key] = status
}

// CurrentStatuses returns a copy of all current scenario statuses.
func (r *StatusReporter) CurrentStatuses() map[scenario.Key]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[scenario.Key]string, len(r.statuses))
	for key, status := range r.statuses {
		result[key] = status
	}
	return result
}
