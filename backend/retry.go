package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// RetryClient retries failed sends a limited number of times with a linearly
// growing backoff before surfacing the last error. Retries live here, behind
// the Client boundary: the scenario runner itself never retries a step.
type RetryClient struct {
	Inner   Client
	Retries int
	Backoff time.Duration
	Logger  *slog.Logger
}

// Send attempts the inner send up to Retries+1 times. The backoff between
// attempt n and n+1 is Backoff*n. Context cancellation aborts the wait.
func (c *RetryClient) Send(ctx context.Context, history []scenario.Turn, input string) (Reply, error) {
	attempts := c.Retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := c.Inner.Send(ctx, history, input)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		if c.Logger != nil {
			c.Logger.Warn("model call failed, retrying",
				"attempt", attempt,
				"total_attempts", attempts,
				"error", err,
			)
		}
		wait := c.Backoff * time.Duration(attempt)
		if wait > 0 {
			select {
			case <-ctx.Done():
				return Reply{}, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return Reply{}, lastErr
}

// ThrottleClient sleeps after every successful send to respect per-vendor
// rate limits.
type ThrottleClient struct {
	Inner Client
	Delay time.Duration
}

// Send forwards to the inner client, then waits Delay on success.
func (c *ThrottleClient) Send(ctx context.Context, history []scenario.Turn, input string) (Reply, error) {
	reply, err := c.Inner.Send(ctx, history, input)
	if err != nil || c.Delay <= 0 {
		return reply, err
	}
	select {
	case <-ctx.Done():
		return reply, nil
	case <-time.After(c.Delay):
	}
	return reply, nil
}
