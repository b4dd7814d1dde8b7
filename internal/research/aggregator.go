// Package research merges user-authored research text with an optional
// external research fetch into one consolidated corpus.
package research

import (
	"context"
	"errors"
	"sync"
	"time"

	"postcraft/internal/logging"
	"postcraft/internal/metrics"
	"postcraft/internal/model"
	"postcraft/internal/util"
)

// Separator marks where fetched research was appended to custom text.
const Separator = "--- AI Research ---"

// PlaceholderSource labels corpora built purely from user-typed text.
const PlaceholderSource = "User provided research"

const maxFindings = 5

// Service is the external research collaborator.
type Service interface {
	Fetch(ctx context.Context, topic, additionalContext string) (model.ResearchCorpus, error)
}

// Aggregator owns the research corpus for one wizard run. A fetch failure
// never discards the corpus: the caller may proceed to generation without
// research data.
type Aggregator struct {
	svc Service

	mu         sync.Mutex
	corpus     *model.ResearchCorpus
	savedText  string // last explicitly saved full content
	editBuffer string
	editing    bool
}

func NewAggregator(svc Service) *Aggregator {
	return &Aggregator{svc: svc}
}

// SetCustomText derives the corpus purely from user-typed text. Empty text
// clears the corpus.
func (a *Aggregator) SetCustomText(topic, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if util.NormalizeWhitespace(text) == "" {
		a.corpus = nil
		a.savedText = ""
		return
	}
	c := customCorpus(topic, text)
	a.corpus = &c
	a.savedText = text
}

// FetchAndMerge fetches external research and appends its full content to any
// existing custom text under the separator, recomputing findings and sources.
// On failure the current corpus is kept and a recoverable ServiceError is
// returned.
func (a *Aggregator) FetchAndMerge(ctx context.Context, topic, additionalContext string) error {
	if a.svc == nil {
		metrics.ResearchFailures.Inc()
		logging.Warn("research_fetch_failed", map[string]any{"topic": topic, "error": "no research service configured"})
		return model.WrapService("research", errors.New("no research service configured"))
	}
	fetched, err := a.svc.Fetch(ctx, topic, additionalContext)
	if err != nil {
		metrics.ResearchFailures.Inc()
		logging.Warn("research_fetch_failed", map[string]any{"topic": topic, "error": err.Error()})
		return model.WrapService("research", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	merged := fetched.FullContent
	if a.savedText != "" {
		merged = a.savedText + "\n\n" + Separator + "\n" + fetched.FullContent
	}
	c := model.ResearchCorpus{
		Query:       topic,
		Findings:    util.NonBlankLines(merged, maxFindings),
		Sources:     fetched.Sources,
		FullContent: merged,
		Timestamp:   time.Now().UTC(),
	}
	if len(c.Sources) == 0 {
		c.Sources = []string{PlaceholderSource}
	}
	a.corpus = &c
	a.savedText = merged
	return nil
}

// StageEdit starts (or updates) an uncommitted edit of the corpus text.
func (a *Aggregator) StageEdit(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.editing = true
	a.editBuffer = text
}

// SaveEdit commits the staged edit: full content replaced, findings recomputed.
func (a *Aggregator) SaveEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.editing {
		return
	}
	a.editing = false
	text := a.editBuffer
	a.editBuffer = ""
	if a.corpus == nil {
		if util.NormalizeWhitespace(text) == "" {
			return
		}
		c := customCorpus("", text)
		a.corpus = &c
		a.savedText = text
		return
	}
	a.corpus.FullContent = text
	a.corpus.Findings = util.NonBlankLines(text, maxFindings)
	a.savedText = text
}

// CancelEdit discards the staged edit; the corpus stays at the last saved text.
func (a *Aggregator) CancelEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.editing = false
	a.editBuffer = ""
}

// SavedText returns the last saved full content.
func (a *Aggregator) SavedText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.savedText
}

// Corpus returns a copy of the current corpus, or nil when no research is held.
func (a *Aggregator) Corpus() *model.ResearchCorpus {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.corpus == nil {
		return nil
	}
	c := *a.corpus
	c.Findings = append([]string(nil), a.corpus.Findings...)
	c.Sources = append([]string(nil), a.corpus.Sources...)
	return &c
}

// Reset clears all held research state.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.corpus = nil
	a.savedText = ""
	a.editBuffer = ""
	a.editing = false
}

func customCorpus(topic, text string) model.ResearchCorpus {
	return model.ResearchCorpus{
		Query:       topic,
		Findings:    util.NonBlankLines(text, maxFindings),
		Sources:     []string{PlaceholderSource},
		FullContent: text,
		Timestamp:   time.Now().UTC(),
	}
}
