// Package groundtruth loads reference answers used when scoring scenario
// runs. The store is keyed by scenario id; everything else on a row is
// flattened into a single reference string.
package groundtruth

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Store holds ground truth text per scenario id.
type Store struct {
	byID map[string]string
}

// NewStore builds a store from an explicit mapping, mainly for tests.
func NewStore(byID map[string]string) *Store {
	m := make(map[string]string, len(byID))
	for id, text := range byID {
		m[strings.TrimSpace(id)] = text
	}
	return &Store{byID: m}
}

// Lookup returns the ground truth for a scenario id, if any.
func (s *Store) Lookup(scenarioID string) (string, bool) {
	text, ok := s.byID[strings.TrimSpace(scenarioID)]
	return text, ok
}

// Len reports how many scenarios have ground truth.
func (s *Store) Len() int {
	return len(s.byID)
}

// LoadXLSX reads ground truth from the first sheet of a workbook. The header
// row must contain a scenario_id column; the remaining non-empty cells on each
// row are joined into the reference text.
func LoadXLSX(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening ground truth workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ground truth workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading ground truth sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ground truth sheet %s is empty", sheets[0])
	}

	keyCol := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "scenario_id") {
			keyCol = i
			break
		}
	}
	if keyCol < 0 {
		return nil, fmt.Errorf("ground truth sheet %s has no scenario_id column", sheets[0])
	}

	byID := make(map[string]string)
	for _, row := range rows[1:] {
		if keyCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[keyCol])
		if id == "" {
			continue
		}
		var parts []string
		for i, cell := range row {
			if i == keyCol {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				parts = append(parts, cell)
			}
		}
		byID[id] = strings.Join(parts, ", ")
	}
	return &Store{byID: byID}, nil
}
