package report

import (
	"sync"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// MemSink keeps results in memory only (no persistence). Tests and dry runs
// use it in place of a durable sink.
type MemSink struct {
	steps  map[scenario.Key]map[int]scenario.StepResult
	scores map[scenario.Key]scenario.ScoreResult
	mu     sync.Mutex
}

// NewMemSink creates an empty in-memory sink.
func NewMemSink() *MemSink {
	return &MemSink{
		steps:  make(map[scenario.Key]map[int]scenario.StepResult),
		scores: make(map[scenario.Key]scenario.ScoreResult),
	}
}

// UpsertStep stores a step result, overwriting any previous value for the key.
func (s *MemSink) UpsertStep(key scenario.Key, stepIndex int, result scenario.StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.steps[key]
	if !ok {
		group = make(map[int]scenario.StepResult)
		s.steps[key] = group
	}
	group[stepIndex] = result
	return nil
}

// UpsertScore stores a score result, overwriting any previous value.
func (s *MemSink) UpsertScore(key scenario.Key, result scenario.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[key] = result
	return nil
}

// StepResults returns a copy of the recorded step results for a group.
func (s *MemSink) StepResults(key scenario.Key) map[int]scenario.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]scenario.StepResult, len(s.steps[key]))
	for idx, res := range s.steps[key] {
		out[idx] = res
	}
	return out
}

// Score returns the recorded score for a group, if any.
func (s *MemSink) Score(key scenario.Key) (scenario.ScoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.scores[key]
	return res, ok
}
