// Package scorer evaluates finished scenario runs against ground truth using
// a judge model.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/backend"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/groundtruth"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/report"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/runner"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// DefaultTemplate is the judge prompt. {transcript} and {ground_truth} are
// substituted per run.
const DefaultTemplate = `You are evaluating a conversation between a user and a retail AI assistant.

Conversation transcript:
{transcript}

Ground truth reference:
{ground_truth}

Rate the assistant on each criterion from 1 (poor) to 5 (excellent). Respond
with a single JSON object whose keys are the criteria names plus a "comments"
key containing a short free-text justification. Criteria: ` + "%s"

// Metrics counts scored runs. A nil Metrics disables recording.
type Metrics interface {
	ObserveScore(platformID string)
}

// Scorer asks a judge model to rate a completed run. Runs with no ground
// truth or no successful steps are skipped rather than failed.
type Scorer struct {
	Client      backend.Client
	GroundTruth *groundtruth.Store
	Template    string
	Sink        report.Sink
	Logger      *slog.Logger
	Metrics     Metrics
}

// Score judges one run and persists the result. The returned error covers
// judge call and persistence failures; a failed judge response still leaves a
// comment-only score in the sink so the report shows what happened.
func (s *Scorer) Score(ctx context.Context, outcome *runner.Outcome) error {
	key := outcome.Key
	if outcome.Successes == 0 {
		s.Logger.Info("skipping scoring, no successful steps",
			"scenario_id", key.ScenarioID, "platform_id", key.PlatformID)
		return nil
	}
	truth, ok := s.GroundTruth.Lookup(key.ScenarioID)
	if !ok {
		s.Logger.Info("skipping scoring, no ground truth",
			"scenario_id", key.ScenarioID, "platform_id", key.PlatformID)
		return nil
	}

	prompt := s.renderPrompt(outcome.Conversation.Transcript(), truth)
	reply, err := s.Client.Send(ctx, nil, prompt)
	if err != nil {
		serr := &scenario.ScoringError{ScenarioID: key.ScenarioID, Cause: err}
		s.persist(key, scenario.ScoreResult{Comment: "scoring failed: " + err.Error()})
		return serr
	}

	result, err := ParseJudgeResponse(reply.Text)
	if err != nil {
		serr := &scenario.ScoringError{ScenarioID: key.ScenarioID, Cause: err}
		s.persist(key, scenario.ScoreResult{Comment: "scoring failed: " + err.Error()})
		return serr
	}

	if err := s.Sink.UpsertScore(key, result); err != nil {
		return fmt.Errorf("persisting score for %s/%s: %w", key.ScenarioID, key.PlatformID, err)
	}
	if s.Metrics != nil {
		s.Metrics.ObserveScore(key.PlatformID)
	}
	s.Logger.Info("scored scenario run",
		"scenario_id", key.ScenarioID, "platform_id", key.PlatformID)
	return nil
}

func (s *Scorer) renderPrompt(transcript, truth string) string {
	template := s.Template
	if template == "" {
		template = fmt.Sprintf(DefaultTemplate, strings.Join(scenario.ScoringFields, ", "))
	}
	return strings.NewReplacer(
		"{transcript}", transcript,
		"{ground_truth}", truth,
	).Replace(template)
}

func (s *Scorer) persist(key scenario.Key, result scenario.ScoreResult) {
	if err := s.Sink.UpsertScore(key, result); err != nil {
		s.Logger.Error("failed to persist score",
			"scenario_id", key.ScenarioID, "platform_id", key.PlatformID, "error", err)
	}
}

// ParseJudgeResponse extracts a score from judge model output. Models often
// wrap the JSON in prose or code fences, so parsing falls back to the span
// between the first '{' and the last '}'.
func ParseJudgeResponse(text string) (scenario.ScoreResult, error) {
	raw, err := decodeObject(text)
	if err != nil {
		return scenario.ScoreResult{}, err
	}

	result := scenario.ScoreResult{Fields: make(map[string]string, len(scenario.ScoringFields))}
	for _, field := range scenario.ScoringFields {
		if v, ok := raw[field]; ok {
			result.Fields[field] = stringify(v)
		}
	}
	if v, ok := raw["comments"]; ok {
		result.Comment = stringify(v)
	}
	return result, nil
}

func decodeObject(text string) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		return raw, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("judge response contains no JSON object")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing judge response: %w", err)
	}
	return raw, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; scores are whole numbers.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
