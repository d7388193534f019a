package selector

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
)

// ContentGenerator is the subset of genai.Models used by Gemini.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini selects with Gemini structured output.
type Gemini struct {
	models ContentGenerator
	model  string
	usage  *cost.Tracker
}

// GeminiConfig holds the settings for NewGeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGeminiClient builds a Gemini selector backed by the Gemini API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, usage *cost.Tracker) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("selector: gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "selector: create gemini client")
	}
	return NewGemini(client.Models, cfg.Model, usage), nil
}

// NewGemini creates a Gemini selector over an existing generator.
func NewGemini(models ContentGenerator, modelID string, usage *cost.Tracker) *Gemini {
	return &Gemini{models: models, model: modelID, usage: usage}
}

var geminiSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"selected_index": {Type: genai.TypeInteger},
		"selected_url":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"confidence":     {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
		"reasoning":      {Type: genai.TypeString},
	},
	Required:         []string{"selected_index", "selected_url", "confidence", "reasoning"},
	PropertyOrdering: []string{"selected_index", "selected_url", "confidence", "reasoning"},
}

// Select implements resolver.Selector.
func (g *Gemini) Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(BuildPrompt(school, candidates)),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			Temperature:       genai.Ptr[float32](0.1),
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
			ResponseSchema:    geminiSchema,
		},
	)
	if err != nil {
		return model.Decision{}, classifyGemini(ctx, err)
	}

	if resp.UsageMetadata != nil {
		g.usage.AddSelector(int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	} else {
		g.usage.AddSelector(0, 0)
	}
	return Decode(resp.Text())
}

func classifyGemini(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return resilience.FromStatus(ProviderGemini, apiErr.Code, nil, err)
	}
	return resilience.FromTransport(ctx, ProviderGemini, err)
}
