package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

func TestMemSinkUpsertOverwrites(t *testing.T) {
	sink := NewMemSink()
	key := scenario.NewKey("Q001", "chatgpt")

	err := sink.UpsertStep(key, 1, scenario.StepResult{Status: scenario.StepFailed, Err: "boom"})
	require.NoError(t, err)
	err = sink.UpsertStep(key, 1, scenario.StepResult{Status: scenario.StepSuccess, TextResponse: "hi"})
	require.NoError(t, err)
	err = sink.UpsertStep(key, 2, scenario.StepResult{Status: scenario.StepSuccess, TextResponse: "again"})
	require.NoError(t, err)

	results := sink.StepResults(key)
	require.Len(t, results, 2)
	assert.Equal(t, scenario.StepSuccess, results[1].Status)
	assert.Equal(t, "hi", results[1].TextResponse)
	assert.Empty(t, results[1].Err)
}

func TestMemSinkScore(t *testing.T) {
	sink := NewMemSink()
	key := scenario.NewKey("Q002", "claude")

	_, ok := sink.Score(key)
	assert.False(t, ok)

	err := sink.UpsertScore(key, scenario.ScoreResult{
		Fields:  map[string]string{"accuracy_of_response": "4"},
		Comment: "solid",
	})
	require.NoError(t, err)

	score, ok := sink.Score(key)
	require.True(t, ok)
	assert.Equal(t, "4", score.Fields["accuracy_of_response"])
	assert.Equal(t, "solid", score.Comment)
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	key := scenario.NewKey("Q001", "chatgpt")

	err = sink.UpsertStep(key, 1, scenario.StepResult{
		Status:       scenario.StepSuccess,
		FullResponse: `{"choices":[]}`,
		TextResponse: "hello",
	})
	require.NoError(t, err)
	err = sink.UpsertStep(key, 2, scenario.StepResult{Status: scenario.StepFailed, Err: "timeout"})
	require.NoError(t, err)

	results, err := sink.StepResults(key)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "hello", results[1].TextResponse)
	assert.Equal(t, scenario.StepFailed, results[2].Status)
	assert.Equal(t, "timeout", results[2].Err)
}

func TestSQLiteSinkUpsertOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	key := scenario.NewKey("Q003", "gemini")

	require.NoError(t, sink.UpsertStep(key, 1, scenario.StepResult{Status: scenario.StepFailed, Err: "boom"}))
	require.NoError(t, sink.UpsertStep(key, 1, scenario.StepResult{Status: scenario.StepSuccess, TextResponse: "ok"}))

	results, err := sink.StepResults(key)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, scenario.StepSuccess, results[1].Status)
	assert.Empty(t, results[1].Err)
}

func TestSQLiteSinkScoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	key := scenario.NewKey("Q001", "chatgpt")

	_, ok, err := sink.Score(key)
	require.NoError(t, err)
	assert.False(t, ok)

	err = sink.UpsertScore(key, scenario.ScoreResult{
		Fields:  map[string]string{"instruction_adherence": "5"},
		Comment: "followed every instruction",
	})
	require.NoError(t, err)

	err = sink.UpsertScore(key, scenario.ScoreResult{
		Fields:  map[string]string{"instruction_adherence": "3"},
		Comment: "revised",
	})
	require.NoError(t, err)

	score, ok, err := sink.Score(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", score.Fields["instruction_adherence"])
	assert.Equal(t, "revised", score.Comment)
}

func TestXLSXSinkWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	rows := []scenario.StepRecord{
		{ScenarioID: "Q001", PlatformID: "CHATGPT", StepIndex: 1, Input: "hi"},
		{ScenarioID: "Q001", PlatformID: "CHATGPT", StepIndex: 2, Input: "more"},
	}

	sink, err := NewXLSXSink(path, rows)
	require.NoError(t, err)

	key := scenario.NewKey("Q001", "CHATGPT")
	err = sink.UpsertStep(key, 1, scenario.StepResult{Status: scenario.StepSuccess, TextResponse: "hello"})
	require.NoError(t, err)
	err = sink.UpsertScore(key, scenario.ScoreResult{
		Fields:  map[string]string{"accuracy_of_response": "4"},
		Comment: "fine",
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	report, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, report, 3)
	assert.Equal(t, "scenario_id", report[0][0])
	assert.Equal(t, "Q001", report[1][0])
	assert.Equal(t, "hello", report[1][7])

	scores, err := f.GetRows("Scores")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Q001", scores[1][0])
	assert.Equal(t, "fine", scores[1][len(scores[1])-1])
}
