package genai

import (
	"strings"

	"postcraft/internal/model"
)

const twitterSystemPrompt = `You are an expert X/Twitter copywriter specializing in viral content. Create posts that:

STRUCTURE:
- Hook (first 7 words must grab attention)
- Core insight/data point
- Punchline or call-to-action

STYLE:
- Short sentences. Maximum impact.
- Use numbers when possible
- Never use hashtags in main text

Keep it under 280 characters and make it punchy, data-driven, and engaging.`

const linkedinSystemPrompt = `You are a LinkedIn thought leader. Create professional content that drives engagement:

STRUCTURE:
1. Opening hook (personal story or insight)
2. Core value/lesson (3-5 key points)
3. Actionable takeaway
4. Engagement question

STYLE:
- Professional but conversational
- Use line breaks for readability
- Include 3-5 relevant hashtags at end
- Data-driven insights preferred

Format for maximum engagement with clear paragraphs and bullet points when helpful.`

const genericSystemPrompt = "You are a social media copywriter. Create engaging content for the specified platform."

func systemPrompt(p model.Platform) string {
	switch p {
	case model.PlatformTwitter:
		return twitterSystemPrompt
	case model.PlatformLinkedIn:
		return linkedinSystemPrompt
	default:
		return genericSystemPrompt
	}
}

// userMessage assembles the generation prompt from topic, research, and
// context, mirroring the order research findings are consumed in.
func userMessage(topic, additionalContext string, corpus *model.ResearchCorpus) string {
	var parts []string
	if corpus != nil {
		parts = append(parts, "RESEARCH CONTEXT:")
		for i, f := range corpus.Findings {
			if i == 3 {
				break
			}
			parts = append(parts, "- "+f)
		}
		if len(corpus.Sources) > 0 {
			parts = append(parts, "\nSOURCES:")
			for i, s := range corpus.Sources {
				if i == 3 {
					break
				}
				parts = append(parts, "- "+s)
			}
		}
		parts = append(parts, "")
	}
	if additionalContext != "" {
		parts = append(parts, "ADDITIONAL CONTEXT:\n"+additionalContext+"\n")
	}
	parts = append(parts, "Generate a post about: "+topic)
	return strings.Join(parts, "\n")
}

func variationMessage(base string, n int) string {
	var sb strings.Builder
	sb.WriteString("Here is a post:\n\n")
	sb.WriteString(base)
	sb.WriteString("\n\nWrite a distinct variation of it with the same core message but a different angle or hook. Variation ")
	sb.WriteString(strings.Repeat("I", n+1))
	sb.WriteString(".")
	return sb.String()
}
