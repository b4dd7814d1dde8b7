package genai

import (
	"context"
	"fmt"

	"postcraft/internal/model"
)

// MockGenerator is an offline Generator for dry runs and tests.
type MockGenerator struct {
	Variations int
}

func (m MockGenerator) Generate(_ context.Context, draft model.DraftRequest, corpus *model.ResearchCorpus) ([]model.ContentItem, error) {
	n := m.Variations
	if n < 1 {
		n = 1
	}
	out := make([]model.ContentItem, 0, len(draft.Platforms))
	for _, platform := range draft.Platforms {
		sugs := make([]model.Suggestion, 0, n)
		for i := 0; i < n; i++ {
			text := fmt.Sprintf("Draft %d on %q for %s.", i+1, draft.Topic, platform)
			if corpus != nil && len(corpus.Findings) > 0 {
				text += " Grounded in: " + corpus.Findings[0]
			}
			if platform == model.PlatformLinkedIn {
				text += " #" + "insights"
			}
			sugs = append(sugs, newSuggestion(text, platform, noteFor(i)))
		}
		out = append(out, model.ContentItem{Platform: platform, Suggestions: sugs})
	}
	return out, nil
}

func (m MockGenerator) Regenerate(_ context.Context, platform model.Platform, contextText string) ([]model.Suggestion, error) {
	n := m.Variations
	if n < 1 {
		n = 1
	}
	sugs := make([]model.Suggestion, 0, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("Regenerated draft %d on %q for %s.", i+1, contextText, platform)
		sugs = append(sugs, newSuggestion(text, platform, noteFor(i)))
	}
	return sugs, nil
}
