package orchestrator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Selection narrows which scenario runs execute. Zero value selects
// everything.
type Selection struct {
	// IncludePlatforms, when non-empty, keeps only these platforms.
	IncludePlatforms []string
	// ExcludePlatforms removes platforms after the include filter.
	ExcludePlatforms []string
	// ScenarioStart and ScenarioEnd bound scenario ids, inclusive. Ids with a
	// numeric suffix compare numerically (Q002 < Q010), others lexically.
	ScenarioStart string
	ScenarioEnd   string
}

// Group is one scenario run: all steps sharing a scenario id and platform,
// ordered by step index.
type Group struct {
	Key   scenario.Key
	Steps []scenario.StepRecord
}

// BuildGroups partitions step records into scenario runs and applies the
// selection. Groups come back in first-appearance order of their key in the
// input, with steps sorted by index inside each group.
func BuildGroups(records []scenario.StepRecord, sel Selection) ([]Group, error) {
	if err := validateRange(sel); err != nil {
		return nil, err
	}

	include := platformSet(sel.IncludePlatforms)
	exclude := platformSet(sel.ExcludePlatforms)

	byKey := make(map[scenario.Key]*Group)
	var order []scenario.Key

	for _, rec := range records {
		key := scenario.NewKey(rec.ScenarioID, rec.PlatformID)
		if len(include) > 0 && !include[key.PlatformID] {
			continue
		}
		if exclude[key.PlatformID] {
			continue
		}
		if !inRange(key.ScenarioID, sel.ScenarioStart, sel.ScenarioEnd) {
			continue
		}

		group, ok := byKey[key]
		if !ok {
			group = &Group{Key: key}
			byKey[key] = group
			order = append(order, key)
		}
		for _, existing := range group.Steps {
			if existing.StepIndex == rec.StepIndex {
				return nil, &scenario.DuplicateStepError{Key: key, StepIndex: rec.StepIndex}
			}
		}
		group.Steps = append(group.Steps, rec)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		group := byKey[key]
		sort.Slice(group.Steps, func(i, j int) bool {
			return group.Steps[i].StepIndex < group.Steps[j].StepIndex
		})
		groups = append(groups, *group)
	}
	return groups, nil
}

func platformSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[scenario.NormalizePlatform(id)] = true
	}
	return set
}

// validateRange rejects a numeric range whose start exceeds its end. Mixed or
// non-numeric bounds fall back to lexicographic comparison and are accepted
// as given.
func validateRange(sel Selection) error {
	if sel.ScenarioStart == "" || sel.ScenarioEnd == "" {
		return nil
	}
	start, startOK := numericSuffix(sel.ScenarioStart)
	end, endOK := numericSuffix(sel.ScenarioEnd)
	if startOK && endOK && start > end {
		return &scenario.SelectionError{
			Reason: fmt.Sprintf("scenario range start %q is after end %q", sel.ScenarioStart, sel.ScenarioEnd),
		}
	}
	return nil
}

// inRange compares a scenario id against inclusive bounds. When both the id
// and the bound carry numeric suffixes the comparison is numeric, so Q002
// sits before Q010.
func inRange(scenarioID, start, end string) bool {
	if start != "" && compareIDs(scenarioID, start) < 0 {
		return false
	}
	if end != "" && compareIDs(scenarioID, end) > 0 {
		return false
	}
	return true
}

func compareIDs(a, b string) int {
	an, aok := numericSuffix(a)
	bn, bok := numericSuffix(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// numericSuffix extracts the trailing digits of an id, so "Q001" yields 1.
func numericSuffix(id string) (int, bool) {
	id = strings.TrimSpace(id)
	i := len(id)
	for i > 0 && unicode.IsDigit(rune(id[i-1])) {
		i--
	}
	if i == len(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}
