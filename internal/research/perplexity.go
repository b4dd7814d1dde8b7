package research

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"postcraft/internal/model"
	"postcraft/internal/util"
)

const perplexityBaseURL = "https://api.perplexity.ai"

const researchSystemPrompt = `You are a research assistant. Provide comprehensive research on the given topic with:
1. Key facts and statistics
2. Recent developments and trends
3. Expert opinions and insights
4. Relevant data points
5. Source citations

Format your response as structured information that can be used for social media content creation.`

// findingMarkers flag lines likely to carry facts or statistics.
var findingMarkers = []string{
	"according to", "study shows", "research indicates", "data reveals",
	"statistics show", "recent survey", "%", "percent", "million", "billion",
	"increase", "decrease",
}

var sourceMarkers = []string{"source:", "according to", "study by", "research from"}

// PerplexityClient implements Service against the Perplexity API, which speaks
// the OpenAI chat-completions protocol.
type PerplexityClient struct {
	model string
	opts  []option.RequestOption
}

func NewPerplexityClient(apiKey, modelName string) (*PerplexityClient, error) {
	if apiKey == "" {
		return nil, errors.New("perplexity api key missing")
	}
	if modelName == "" {
		modelName = "sonar"
	}
	return &PerplexityClient{
		model: modelName,
		opts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithBaseURL(perplexityBaseURL),
		},
	}, nil
}

func (c *PerplexityClient) Fetch(ctx context.Context, topic, additionalContext string) (model.ResearchCorpus, error) {
	client := openai.NewClient(c.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(researchSystemPrompt),
			openai.UserMessage(buildQuery(topic, additionalContext)),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return model.ResearchCorpus{}, err
	}
	if len(resp.Choices) == 0 {
		return model.ResearchCorpus{}, errors.New("research: empty choices")
	}
	return parseResearch(resp.Choices[0].Message.Content, topic), nil
}

// TrendingTopics asks for current topics worth posting about. Category may be
// empty.
func (c *PerplexityClient) TrendingTopics(ctx context.Context, category string) ([]string, error) {
	prompt := "List 8 trending topics suitable for social media posts right now, one per line, no numbering."
	if category != "" {
		prompt += " Focus on the category: " + category + "."
	}
	client := openai.NewClient(c.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(400),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("research: empty choices")
	}
	return util.NonBlankLines(resp.Choices[0].Message.Content, 8), nil
}

func buildQuery(topic, additionalContext string) string {
	parts := []string{
		"Research the topic: " + topic,
		"",
		"Please provide:",
		"1. Latest statistics and data points",
		"2. Recent news and developments",
		"3. Key trends and insights",
		"4. Expert opinions and quotes",
		"5. Relevant facts for social media content",
	}
	if additionalContext != "" {
		parts = append(parts, "", "Additional context: "+additionalContext)
	}
	return strings.Join(parts, "\n")
}

func parseResearch(content, topic string) model.ResearchCorpus {
	var findings, sources []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(findings) < maxFindings && util.ContainsAnyCaseInsensitive(line, findingMarkers) {
			findings = append(findings, line)
		}
		if len(sources) < maxFindings && util.ContainsAnyCaseInsensitive(line, sourceMarkers) {
			sources = append(sources, line)
		}
	}
	if len(findings) == 0 {
		findings = util.NonBlankLines(content, maxFindings)
	}
	return model.ResearchCorpus{
		Query:       topic,
		Findings:    findings,
		Sources:     sources,
		FullContent: content,
		Timestamp:   time.Now().UTC(),
	}
}
