// Package scenario defines the shared data model for benchmark runs: step
// records loaded from a dataset, the conversation state carried across the
// steps of one scenario, and the per-step and per-scenario results written to
// the report sink.
package scenario

import (
	"strings"
)

// StepRecord is one unit of work: a single conversation turn to send to one
// platform as part of one scenario. Records are immutable once loaded.
type StepRecord struct {
	ScenarioID string
	PlatformID string
	StepIndex  int
	StepID     string
	StepType   string
	Input      string
}

// Key identifies one scenario run against one platform. Platform ids are
// case-insensitive, so the id is normalized to upper case.
type Key struct {
	ScenarioID string
	PlatformID string
}

// NewKey builds a Key with a normalized platform id.
func NewKey(scenarioID, platformID string) Key {
	return Key{
		ScenarioID: strings.TrimSpace(scenarioID),
		PlatformID: NormalizePlatform(platformID),
	}
}

// NormalizePlatform upper-cases and trims a platform id for case-insensitive
// comparison.
func NormalizePlatform(platformID string) string {
	return strings.ToUpper(strings.TrimSpace(platformID))
}

func (k Key) String() string {
	return k.ScenarioID + "/" + k.PlatformID
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one half of an exchange: what was sent or what came back.
type Turn struct {
	Role    string
	Content string
}

// Conversation accumulates the turns of one scenario run. It is append-only:
// a failed step contributes no turns, so later steps see the history exactly
// as it stood before the failure.
type Conversation struct {
	turns []Turn
}

// Append records one completed exchange.
func (c *Conversation) Append(userPrompt, assistantReply string) {
	c.turns = append(c.turns,
		Turn{Role: RoleUser, Content: userPrompt},
		Turn{Role: RoleAssistant, Content: assistantReply},
	)
}

// Turns returns a copy of the accumulated history.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of recorded turns (two per completed exchange).
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Transcript renders the history as a plain-text dialogue. Stateless scoring
// prompts embed this form rather than structured messages.
func (c *Conversation) Transcript() string {
	var b strings.Builder
	for i, turn := range c.turns {
		if turn.Content == "" {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		switch turn.Role {
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(turn.Content)
	}
	return b.String()
}

// StepStatus is the terminal state of one executed step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepSuccess
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepSuccess:
		return "success"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepResult is the recorded outcome of one step. Immutable once written to
// the report sink.
type StepResult struct {
	Status       StepStatus
	FullResponse string
	TextResponse string
	Err          string
}

// ScoreResult is the recorded outcome of scoring one scenario run against
// ground truth. Fields holds the backend-defined scoring fields; when scoring
// itself fails, Fields is empty and Comment carries the cause.
type ScoreResult struct {
	Fields  map[string]string
	Comment string
}

// ScoringFields is the fixed set of fields a scoring backend is asked to
// produce. The "comments" field is lifted into ScoreResult.Comment.
var ScoringFields = []string{
	"identity_accuracy_score",
	"attribute_completeness_score",
	"attribute_correctness_score",
	"regulatory_correctness_score",
	"transactional_reliability_score",
	"step_outcome",
	"failure_modes",
	"instant_checkout_feasibility_score",
	"checkout_failure_modes",
	"efficiency_score",
	"query_to_product_match_score",
	"agent_failure_modes",
}
