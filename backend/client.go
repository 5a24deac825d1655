// Package backend provides the client capability for AI platforms under test:
// send one conversation turn, get a structured reply back. Vendor-specific
// request and response translation stays entirely behind the Client interface,
// so the orchestration core never sees provider details.
package backend

import (
	"context"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Reply is a backend's structured answer to one conversation turn.
type Reply struct {
	// Raw is the provider payload serialized as JSON, kept for the report.
	Raw string
	// Text is the extracted primary text of the reply.
	Text string
}

// Client sends one turn to an AI platform. The history carries every prior
// turn of the scenario so stateless APIs keep multi-turn context.
//
// Send blocks for the duration of the network call and honors ctx
// cancellation. Implementations wrap their own request timeout.
type Client interface {
	Send(ctx context.Context, history []scenario.Turn, input string) (Reply, error)
}
