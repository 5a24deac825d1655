package report

import (
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Report sheet column headers, in output order. Input columns mirror the
// dataset rows; output columns are filled in as results arrive.
var xlsxStepHeader = []string{
	"scenario_id", "platform_id", "step_id", "step_index", "step_type",
	"user_prompt", "status", "text_model_response", "full_model_response", "error",
}

// XLSXSink persists results as a spreadsheet. The whole workbook is rewritten
// on every upsert: crude, but it keeps the on-disk report complete after each
// step and the file stays directly openable while a run is in flight.
type XLSXSink struct {
	path    string
	rows    []scenario.StepRecord
	results map[scenario.Key]map[int]scenario.StepResult
	scores  []scoreRow
	mu      sync.Mutex
}

type scoreRow struct {
	key    scenario.Key
	result scenario.ScoreResult
}

// NewXLSXSink creates a sink that mirrors the given input rows. The workbook
// is written immediately so an interrupted run still leaves a valid report.
func NewXLSXSink(path string, rows []scenario.StepRecord) (*XLSXSink, error) {
	s := &XLSXSink{
		path:    path,
		rows:    rows,
		results: make(map[scenario.Key]map[int]scenario.StepResult),
	}
	if err := s.write(); err != nil {
		return nil, err
	}
	return s, nil
}

// UpsertStep records a step result and rewrites the workbook.
func (s *XLSXSink) UpsertStep(key scenario.Key, stepIndex int, result scenario.StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.results[key]
	if !ok {
		group = make(map[int]scenario.StepResult)
		s.results[key] = group
	}
	group[stepIndex] = result
	return s.write()
}

// UpsertScore records a score result and rewrites the workbook.
func (s *XLSXSink) UpsertScore(key scenario.Key, result scenario.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scores {
		if s.scores[i].key == key {
			s.scores[i].result = result
			return s.write()
		}
	}
	s.scores = append(s.scores, scoreRow{key: key, result: result})
	return s.write()
}

// write renders the full workbook and saves it. Callers hold the mutex.
func (s *XLSXSink) write() error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Report"); err != nil {
		return fmt.Errorf("renaming report sheet: %w", err)
	}
	if err := s.writeSteps(f); err != nil {
		return err
	}
	if err := s.writeScores(f); err != nil {
		return err
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving report workbook: %w", err)
	}
	return nil
}

func (s *XLSXSink) writeSteps(f *excelize.File) error {
	header := make([]interface{}, len(xlsxStepHeader))
	for i, name := range xlsxStepHeader {
		header[i] = name
	}
	if err := f.SetSheetRow("Report", "A1", &header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	for i, rec := range s.rows {
		key := scenario.NewKey(rec.ScenarioID, rec.PlatformID)
		var res scenario.StepResult
		if group, ok := s.results[key]; ok {
			res = group[rec.StepIndex]
		}

		row := []interface{}{
			rec.ScenarioID, key.PlatformID, rec.StepID, rec.StepIndex, rec.StepType,
			rec.Input, res.Status.String(), res.TextResponse, res.FullResponse, res.Err,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Report", cell, &row); err != nil {
			return fmt.Errorf("writing report row %d: %w", i+2, err)
		}
	}
	return nil
}

func (s *XLSXSink) writeScores(f *excelize.File) error {
	if _, err := f.NewSheet("Scores"); err != nil {
		return fmt.Errorf("creating scores sheet: %w", err)
	}

	header := []interface{}{"scenario_id", "platform_id"}
	for _, field := range scenario.ScoringFields {
		header = append(header, field)
	}
	header = append(header, "comments")
	if err := f.SetSheetRow("Scores", "A1", &header); err != nil {
		return fmt.Errorf("writing scores header: %w", err)
	}

	for i, sr := range s.scores {
		row := []interface{}{sr.key.ScenarioID, sr.key.PlatformID}
		for _, field := range scenario.ScoringFields {
			row = append(row, sr.result.Fields[field])
		}
		row = append(row, sr.result.Comment)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Scores", cell, &row); err != nil {
			return fmt.Errorf("writing scores row %d: %w", i+2, err)
		}
	}
	return nil
}
