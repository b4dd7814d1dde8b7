// Package wizard is the ordered-stage controller for a generation run:
// topic entry, research review, content review.
package wizard

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"postcraft/internal/content"
	"postcraft/internal/genai"
	"postcraft/internal/logging"
	"postcraft/internal/model"
	"postcraft/internal/research"
)

// Stage is the wizard's current position.
type Stage int

const (
	StageTopic Stage = iota
	StageResearch
	StageContent
)

func (s Stage) String() string {
	switch s {
	case StageTopic:
		return "topic"
	case StageResearch:
		return "research"
	case StageContent:
		return "content"
	}
	return "unknown"
}

// Wizard holds one run's draft request, research, and generated content.
// Back never loses forward data; completing the run resets everything.
type Wizard struct {
	research *research.Aggregator
	gen      genai.Generator
	validate *validator.Validate

	mu    sync.Mutex
	stage Stage
	draft model.DraftRequest
	board *content.Board
}

func New(agg *research.Aggregator, gen genai.Generator) *Wizard {
	return &Wizard{
		research: agg,
		gen:      gen,
		validate: validator.New(),
		board:    content.NewBoard(nil),
	}
}

func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

func (w *Wizard) Draft() model.DraftRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.draft
	d.Platforms = append([]model.Platform(nil), w.draft.Platforms...)
	return d
}

// UpdateDraft replaces the draft request. The wizard is the draft's sole
// writer; callers hand in the whole value.
func (w *Wizard) UpdateDraft(d model.DraftRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = d
}

// Board exposes the generated content set; empty until generation succeeds.
func (w *Wizard) Board() *content.Board {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.board
}

// Research exposes the run's research aggregator.
func (w *Wizard) Research() *research.Aggregator { return w.research }

// FetchResearch pulls external research during the research stage. Failure is
// recoverable: the run may proceed to generation without research data.
func (w *Wizard) FetchResearch(ctx context.Context) error {
	d := w.Draft()
	if !d.IncludeResearch {
		return nil
	}
	return w.research.FetchAndMerge(ctx, d.Topic, d.AdditionalContext)
}

// Next advances the wizard one stage.
//
// From the topic stage it is a pure gate: the draft must be valid. From the
// research stage it triggers generation and advances only on success. From the
// content stage it resets the whole run back to the topic stage.
func (w *Wizard) Next(ctx context.Context) error {
	switch w.Stage() {
	case StageTopic:
		if err := w.validate.Struct(w.Draft()); err != nil {
			return model.Validationf("a topic and at least one platform are required")
		}
		w.setStage(StageResearch)
		return nil
	case StageResearch:
		d := w.Draft()
		items, err := w.gen.Generate(ctx, d, w.research.Corpus())
		if err != nil {
			logging.Error("generation_failed", map[string]any{"topic": d.Topic, "error": err.Error()})
			return err
		}
		w.mu.Lock()
		w.board = content.NewBoard(items)
		w.stage = StageContent
		w.mu.Unlock()
		logging.Info("content_generated", map[string]any{"topic": d.Topic, "platforms": len(d.Platforms)})
		return nil
	default:
		w.Reset()
		return nil
	}
}

// Back decrements the stage without clearing any held data, so re-advancing
// restores prior state.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage > StageTopic {
		w.stage--
	}
}

// Regenerate requests fresh suggestions for one platform and swaps them in;
// other platforms are untouched.
func (w *Wizard) Regenerate(ctx context.Context, platform model.Platform) error {
	d := w.Draft()
	contextText := d.Topic
	if d.AdditionalContext != "" {
		contextText += " (" + d.AdditionalContext + ")"
	}
	sugs, err := w.gen.Regenerate(ctx, platform, contextText)
	if err != nil {
		return err
	}
	return w.Board().Replace(platform, sugs)
}

// Reset clears the draft, research, and content set and returns to the topic
// stage. This is the "Create More Content" full pipeline reset.
func (w *Wizard) Reset() {
	w.mu.Lock()
	w.draft = model.DraftRequest{}
	w.board = content.NewBoard(nil)
	w.stage = StageTopic
	w.mu.Unlock()
	w.research.Reset()
}

func (w *Wizard) setStage(s Stage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stage = s
}
