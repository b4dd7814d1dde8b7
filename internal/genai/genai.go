// Package genai produces platform-specific content suggestions via an LLM.
package genai

import (
	"context"
	"regexp"
	"strings"

	"postcraft/internal/limits"
	"postcraft/internal/model"
)

// Generator is the external content-generation collaborator.
type Generator interface {
	// Generate produces one ContentItem per requested platform, each with a
	// list of suggestion variants.
	Generate(ctx context.Context, draft model.DraftRequest, corpus *model.ResearchCorpus) ([]model.ContentItem, error)
	// Regenerate produces a fresh suggestion list for a single platform.
	Regenerate(ctx context.Context, platform model.Platform, contextText string) ([]model.Suggestion, error)
}

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// extractHashtags pulls up to 5 hashtags out of LinkedIn content. Twitter
// content is generated without hashtags and is left alone.
func extractHashtags(content string, platform model.Platform) []string {
	if platform != model.PlatformLinkedIn {
		return nil
	}
	var tags []string
	for _, m := range hashtagRe.FindAllStringSubmatch(content, 5) {
		tags = append(tags, m[1])
	}
	return tags
}

// newSuggestion builds a Suggestion with its count invariant satisfied.
func newSuggestion(content string, platform model.Platform, note string) model.Suggestion {
	content = strings.TrimSpace(content)
	return model.Suggestion{
		Content:        content,
		CharacterCount: limits.Count(content),
		Hashtags:       extractHashtags(content, platform),
		VariationNote:  note,
	}
}

var variationNotes = []string{"", "alternate angle", "shorter hook"}

func noteFor(i int) string {
	if i < len(variationNotes) {
		return variationNotes[i]
	}
	return "variation"
}
