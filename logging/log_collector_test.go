package logging

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

func TestNewLogCollector(t *testing.T) {
	collector := NewLogCollector()
	require.NotNil(t, collector)
	assert.NotNil(t, collector.logs)
}

func TestLogCollector_AddLog(t *testing.T) {
	collector := NewLogCollector()
	key := scenario.NewKey("Q001", "CHATGPT")

	entry := LogEntry{
		Time:       time.Now(),
		Level:      "info",
		Message:    "test message",
		Attributes: map[string]interface{}{"key": "value"},
	}

	collector.AddLog(key, entry)

	logs := collector.GetLogs(key)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.Level, logs[0].Level)
	assert.Equal(t, entry.Message, logs[0].Message)
	assert.Equal(t, entry.Attributes["key"], logs[0].Attributes["key"])
}

func TestLogCollector_AddLog_Concurrent(t *testing.T) {
	collector := NewLogCollector()
	key := scenario.NewKey("Q001", "CHATGPT")
	const numGoroutines = 100
	const logsPerGoroutine = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Launch concurrent goroutines adding logs
	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < logsPerGoroutine; j++ {
				entry := LogEntry{
					Time:       time.Now(),
					Level:      "info",
					Message:    "concurrent test",
					Attributes: map[string]interface{}{"goroutine": goroutineID, "log": j},
				}
				collector.AddLog(key, entry)
			}
		}(i)
	}

	wg.Wait()

	// Verify all logs were captured
	logs := collector.GetLogs(key)
	assert.Len(t, logs, numGoroutines*logsPerGoroutine)
}

func TestLogCollector_GetLogs(t *testing.T) {
	collector := NewLogCollector()
	key := scenario.NewKey("Q001", "CHATGPT")

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "first", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "error", Message: "second", Attributes: map[string]interface{}{}}

	collector.AddLog(key, entry1)
	collector.AddLog(key, entry2)

	logs := collector.GetLogs(key)
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
}

func TestLogCollector_GetLogs_NonExistent(t *testing.T) {
	collector := NewLogCollector()

	logs := collector.GetLogs(scenario.NewKey("Q999", "CHATGPT"))
	assert.Nil(t, logs)
}

func TestLogCollector_GetLogs_ReturnsCopy(t *testing.T) {
	collector := NewLogCollector()
	key := scenario.NewKey("Q001", "CHATGPT")

	entry := LogEntry{Time: time.Now(), Level: "info", Message: "test", Attributes: map[string]interface{}{}}
	collector.AddLog(key, entry)

	// Get logs and modify the returned slice
	logs := collector.GetLogs(key)
	require.Len(t, logs, 1)

	logs[0].Message = "modified"

	// Get logs again and verify original is unchanged
	logsAgain := collector.GetLogs(key)
	assert.Equal(t, "test", logsAgain[0].Message, "GetLogs should return a copy, not the original")
}

func TestLogCollector_GetAllLogs(t *testing.T) {
	collector := NewLogCollector()
	keyA := scenario.NewKey("Q001", "CHATGPT")
	keyB := scenario.NewKey("Q001", "CLAUDE")

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "chatgpt log", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "warn", Message: "claude log", Attributes: map[string]interface{}{}}

	collector.AddLog(keyA, entry1)
	collector.AddLog(keyB, entry2)

	allLogs := collector.GetAllLogs()
	require.Len(t, allLogs, 2)
	assert.Contains(t, allLogs, keyA)
	assert.Contains(t, allLogs, keyB)
	assert.Len(t, allLogs[keyA], 1)
	assert.Len(t, allLogs[keyB], 1)
}

func TestLogCollector_GetAllLogs_ReturnsCopy(t *testing.T) {
	collector := NewLogCollector()
	key := scenario.NewKey("Q001", "CHATGPT")

	entry := LogEntry{Time: time.Now(), Level: "info", Message: "test", Attributes: map[string]interface{}{}}
	collector.AddLog(key, entry)

	// Get all logs and modify the returned map
	allLogs := collector.GetAllLogs()
	require.Len(t, allLogs, 1)

	allLogs[key][0].Message = "modified"

	// Get all logs again and verify original is unchanged
	allLogsAgain := collector.GetAllLogs()
	assert.Equal(t, "test", allLogsAgain[key][0].Message, "GetAllLogs should return a deep copy")
}

func TestLogCollector_Clear(t *testing.T) {
	collector := NewLogCollector()

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "log1", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "info", Message: "log2", Attributes: map[string]interface{}{}}

	collector.AddLog(scenario.NewKey("Q001", "CHATGPT"), entry1)
	collector.AddLog(scenario.NewKey("Q002", "CHATGPT"), entry2)

	// Verify logs exist
	allLogs := collector.GetAllLogs()
	assert.Len(t, allLogs, 2)

	// Clear and verify empty
	collector.Clear()

	allLogsAfterClear := collector.GetAllLogs()
	assert.Len(t, allLogsAfterClear, 0)
}

func TestLogCollector_MultipleRunsConcurrent(t *testing.T) {
	collector := NewLogCollector()
	const numRuns = 10
	const logsPerRun = 50

	var wg sync.WaitGroup
	wg.Add(numRuns)

	// Launch concurrent goroutines, each logging to a different scenario run
	for i := 0; i < numRuns; i++ {
		go func(runNum int) {
			defer wg.Done()
			key := scenario.NewKey(fmt.Sprintf("Q%03d", runNum), "CHATGPT")
			for j := 0; j < logsPerRun; j++ {
				entry := LogEntry{
					Time:       time.Now(),
					Level:      "debug",
					Message:    "concurrent multi-run test",
					Attributes: map[string]interface{}{"run": runNum, "log": j},
				}
				collector.AddLog(key, entry)
			}
		}(i)
	}

	wg.Wait()

	// Verify all runs have correct number of logs
	allLogs := collector.GetAllLogs()
	assert.Len(t, allLogs, numRuns)

	for key, logs := range allLogs {
		assert.Len(t, logs, logsPerRun, "Run %v should have %d logs", key, logsPerRun)
	}
}
