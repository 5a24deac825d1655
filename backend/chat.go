package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Provider names accepted by NewChatClient.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Credentials holds the resolved connection settings for one platform.
type Credentials struct {
	BaseURL string
	APIKey  string
	Model   string
}

// ChatClient is a Client backed by a langchaingo chat model. One instance
// serves one platform; platforms that speak an OpenAI-compatible dialect
// (including Gemini and Perplexity endpoints) use the openai provider with a
// custom base URL.
type ChatClient struct {
	platformID string
	model      llms.Model
	timeout    time.Duration
}

// NewChatClient builds a ChatClient for the given provider. A zero timeout
// disables the per-request deadline.
func NewChatClient(platformID, provider string, creds Credentials, timeout time.Duration) (*ChatClient, error) {
	var (
		model llms.Model
		err   error
	)
	switch provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(creds.APIKey),
			openai.WithModel(creds.Model),
		}
		if creds.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(creds.BaseURL))
		}
		model, err = openai.New(opts...)
	case ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(creds.APIKey),
			anthropic.WithModel(creds.Model),
		}
		if creds.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(creds.BaseURL))
		}
		model, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unknown provider %q for platform %s", provider, platformID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client for platform %s: %w", provider, platformID, err)
	}

	return &ChatClient{
		platformID: scenario.NormalizePlatform(platformID),
		model:      model,
		timeout:    timeout,
	}, nil
}

// NewChatClientWithModel wraps an existing model. Used by tests and by callers
// that construct the model themselves.
func NewChatClientWithModel(platformID string, model llms.Model, timeout time.Duration) *ChatClient {
	return &ChatClient{
		platformID: scenario.NormalizePlatform(platformID),
		model:      model,
		timeout:    timeout,
	}
}

// Send converts the accumulated history plus the new input into chat messages
// and invokes the model once.
func (c *ChatClient) Send(ctx context.Context, history []scenario.Turn, input string) (Reply, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == scenario.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))

	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("platform %s returned no choices", c.platformID)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		// The text still stands on its own; keep it and note the raw loss.
		raw = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}

	return Reply{
		Raw:  string(raw),
		Text: resp.Choices[0].Content,
	}, nil
}
