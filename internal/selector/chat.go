package selector

import (
	"context"
	"errors"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
	"github.com/sells-group/staff-finder/pkg/perplexity"
)

// Chat selects through an OpenAI-compatible chat completions endpoint with
// a json_schema response format.
type Chat struct {
	client   perplexity.Client
	provider string
	usage    *cost.Tracker
}

// NewChat creates a chat completions selector. provider names the endpoint
// in errors and breaker keys.
func NewChat(client perplexity.Client, provider string, usage *cost.Tracker) *Chat {
	return &Chat{client: client, provider: provider, usage: usage}
}

// Select implements resolver.Selector.
func (c *Chat) Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	temp := 0.1
	maxTokens := defaultMaxTokens
	resp, err := c.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(school, candidates)},
		},
		Temperature:    &temp,
		MaxTokens:      &maxTokens,
		ResponseFormat: perplexity.JSONSchemaFormat("staff_directory_decision", decisionSchema()),
	})
	if err != nil {
		var apiErr *perplexity.APIError
		if errors.As(err, &apiErr) {
			return model.Decision{}, resilience.FromStatus(c.provider, apiErr.StatusCode, apiErr.Header, err)
		}
		return model.Decision{}, resilience.FromTransport(ctx, c.provider, err)
	}

	c.usage.AddSelector(int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 {
		return model.Decision{}, resolver.NewContractError("response has no choices", nil)
	}
	return Decode(resp.Choices[0].Message.Content)
}
