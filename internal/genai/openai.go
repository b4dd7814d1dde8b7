package genai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"postcraft/internal/metrics"
	"postcraft/internal/model"
)

// providerBaseURLs maps providers with OpenAI-compatible endpoints. Claude and
// Gemini requests go through their OpenAI-compatible gateways.
var providerBaseURLs = map[model.AIProvider]string{
	model.ProviderXAI:    "https://api.x.ai/v1",
	model.ProviderClaude: "https://api.anthropic.com/v1",
	model.ProviderGemini: "https://generativelanguage.googleapis.com/v1beta/openai",
}

// OpenAIGenerator implements Generator on the openai-go chat-completions API.
type OpenAIGenerator struct {
	model      string
	variations int
	opts       []option.RequestOption
}

func NewOpenAIGenerator(provider model.AIProvider, apiKey, modelName string, variations int) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("generation api key missing")
	}
	if modelName == "" {
		return nil, errors.New("generation model is required")
	}
	if variations < 1 {
		variations = 1
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base, ok := providerBaseURLs[provider]; ok {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAIGenerator{model: modelName, variations: variations, opts: opts}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, draft model.DraftRequest, corpus *model.ResearchCorpus) ([]model.ContentItem, error) {
	metrics.GenerationRuns.Inc()
	out := make([]model.ContentItem, 0, len(draft.Platforms))
	for _, platform := range draft.Platforms {
		sugs, err := g.suggestionsFor(ctx, platform, userMessage(draft.Topic, draft.AdditionalContext, corpus))
		if err != nil {
			return nil, model.WrapService("generate", err)
		}
		out = append(out, model.ContentItem{Platform: platform, Suggestions: sugs})
	}
	return out, nil
}

func (g *OpenAIGenerator) Regenerate(ctx context.Context, platform model.Platform, contextText string) ([]model.Suggestion, error) {
	metrics.GenerationRuns.Inc()
	sugs, err := g.suggestionsFor(ctx, platform, "Generate a post about: "+contextText)
	if err != nil {
		return nil, model.WrapService("generate", err)
	}
	return sugs, nil
}

// suggestionsFor produces the primary draft plus variations for one platform.
func (g *OpenAIGenerator) suggestionsFor(ctx context.Context, platform model.Platform, prompt string) ([]model.Suggestion, error) {
	base, err := g.complete(ctx, systemPrompt(platform), prompt)
	if err != nil {
		return nil, err
	}
	sugs := []model.Suggestion{newSuggestion(base, platform, noteFor(0))}
	for i := 1; i < g.variations; i++ {
		v, err := g.complete(ctx, systemPrompt(platform), variationMessage(base, i))
		if err != nil {
			// Variations are best effort; the primary draft already succeeded.
			break
		}
		sugs = append(sugs, newSuggestion(v, platform, noteFor(i)))
	}
	return sugs, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	client := openai.NewClient(g.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
