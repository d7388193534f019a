package selector

import (
	"context"
	"errors"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/pkg/anthropic"
)

const defaultMaxTokens = 512

// Anthropic selects with the Claude Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	usage     *cost.Tracker
}

// NewAnthropic creates an Anthropic selector. usage may be nil.
func NewAnthropic(client anthropic.Client, modelID string, maxTokens int, usage *cost.Tracker) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Anthropic{client: client, model: modelID, maxTokens: int64(maxTokens), usage: usage}
}

// Select implements resolver.Selector.
func (a *Anthropic) Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	temp := 0.1
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(school, candidates)}},
		Temperature: &temp,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return model.Decision{}, resilience.FromStatus(ProviderAnthropic, apiErr.StatusCode, apiErr.Header, err)
		}
		return model.Decision{}, resilience.FromTransport(ctx, ProviderAnthropic, err)
	}

	a.usage.AddSelector(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return Decode(resp.Text())
}
