// Package dataset loads benchmark step records from spreadsheet files.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Columns the loader requires. step_id and step_type are optional.
var requiredColumns = []string{"scenario_id", "platform_id", "step_index", "user_prompt"}

// LoadSteps reads step records from the first sheet of a workbook. Column
// order does not matter; columns are matched by header name. Rows missing a
// scenario id or platform are skipped, a bad step_index is an error.
func LoadSteps(path string) ([]scenario.StepRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("dataset %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading dataset sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset sheet %s is empty", sheets[0])
	}

	cols := make(map[string]int)
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset sheet %s missing column %q", sheets[0], name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []scenario.StepRecord
	for n, row := range rows[1:] {
		scenarioID := cell(row, "scenario_id")
		platformID := cell(row, "platform_id")
		if scenarioID == "" || platformID == "" {
			continue
		}
		index, err := parseStepIndex(cell(row, "step_index"))
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", n+2, err)
		}
		records = append(records, scenario.StepRecord{
			ScenarioID: scenarioID,
			PlatformID: platformID,
			StepIndex:  index,
			StepID:     cell(row, "step_id"),
			StepType:   cell(row, "step_type"),
			Input:      cell(row, "user_prompt"),
		})
	}
	return records, nil
}

// parseStepIndex accepts integers and spreadsheet floats like "1.0".
func parseStepIndex(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty step_index")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid step_index %q: %w", raw, err)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid step_index %q: not a whole number", raw)
	}
	return int(v), nil
}
