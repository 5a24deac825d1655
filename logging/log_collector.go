package logging

import (
	"sync"
	"time"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// LogEntry represents a single log record with structured data.
type LogEntry struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level"` // "debug", "info", "warn", "error"
	Message    string                 `json:"message"`
	Attributes map[string]interface{} `json:"attributes"` // Structured fields
}

// LogCollector provides thread-safe storage of logs per scenario run.
type LogCollector struct {
	mu   sync.RWMutex
	logs map[scenario.Key][]LogEntry
}

// NewLogCollector creates a new LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[scenario.Key][]LogEntry),
	}
}

// AddLog adds a log entry for the specified scenario run (thread-safe).
func (c *LogCollector) AddLog(key scenario.Key, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs[key] = append(c.logs[key], entry)
}

// GetLogs retrieves all log entries for a specific scenario run (thread-safe).
func (c *LogCollector) GetLogs(key scenario.Key) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Return a copy to prevent external modification
	logs, exists := c.logs[key]
	if !exists {
		return nil
	}

	result := make([]LogEntry, len(logs))
	copy(result, logs)
	return result
}

// GetAllLogs returns all logs grouped by scenario run (thread-safe).
// Returns a copy of the internal map to prevent external modification.
func (c *LogCollector) GetAllLogs() map[scenario.Key][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Return a deep copy to prevent external modification
	result := make(map[scenario.Key][]LogEntry, len(c.logs))
	for key, logs := range c.logs {
		logsCopy := make([]LogEntry, len(logs))
		copy(logsCopy, logs)
		result[key] = logsCopy
	}

	return result
}

// Clear resets the log collector, removing all stored logs (thread-safe).
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[scenario.Key][]LogEntry)
}
