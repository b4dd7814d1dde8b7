// Package pipeline orchestrates the chained save/schedule/publish actions.
//
// Each (platform, suggestion index) pair runs its own little state machine so
// publishing one suggestion never blocks actions on any other. A chained
// action issues its second step only after the first resolves successfully.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"postcraft/internal/limits"
	"postcraft/internal/logging"
	"postcraft/internal/metrics"
	"postcraft/internal/model"
)

// State is the pipeline position of one pair.
type State int

const (
	Idle State = iota
	Saving
	Saved
	Scheduling
	Publishing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Scheduling:
		return "scheduling"
	case Publishing:
		return "publishing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrBusy is returned when a pair already has a chain in flight. Calls are
// rejected, never queued.
var ErrBusy = errors.New("an action is already in flight for this suggestion")

// PairKey identifies the unit of independent pipeline state.
type PairKey struct {
	Platform model.Platform
	Index    int
}

// PairStatus is a read-only snapshot of one pair's pipeline state.
type PairStatus struct {
	State   State
	PostID  string
	EntryID string
	Err     string
}

// Input is the material a chained action persists.
type Input struct {
	Topic    string
	Content  string
	Platform model.Platform
	Research *model.ResearchCorpus
}

// Store is the persistence collaborator.
type Store interface {
	CreatePost(ctx context.Context, topic, content string, platform model.Platform, research *model.ResearchCorpus) (model.PersistedPost, error)
	MarkPublished(ctx context.Context, postID, platformPostID string) error
}

// Scheduler is the schedule collaborator.
type Scheduler interface {
	Schedule(ctx context.Context, postID string, at time.Time) (model.ScheduledEntry, error)
}

// Publisher posts immediately to one platform.
type Publisher interface {
	PublishNow(ctx context.Context, post model.PersistedPost) (model.PublishResult, error)
}

// Pipeline coordinates chained actions across pairs.
type Pipeline struct {
	store      Store
	sched      Scheduler
	publishers map[model.Platform]Publisher
	now        func() time.Time

	mu    sync.Mutex
	pairs map[PairKey]*PairStatus
}

func New(store Store, sched Scheduler, publishers map[model.Platform]Publisher) *Pipeline {
	return &Pipeline{
		store:      store,
		sched:      sched,
		publishers: publishers,
		now:        time.Now,
		pairs:      make(map[PairKey]*PairStatus),
	}
}

// StateOf returns a snapshot of one pair's state.
func (p *Pipeline) StateOf(key PairKey) PairStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.pairs[key]; ok {
		return *st
	}
	return PairStatus{State: Idle}
}

// Save persists a suggestion as a draft post. The pair ends in Saved.
func (p *Pipeline) Save(ctx context.Context, key PairKey, in Input) (model.PersistedPost, error) {
	if err := validateInput(in); err != nil {
		return model.PersistedPost{}, err
	}
	if err := p.begin(key); err != nil {
		return model.PersistedPost{}, err
	}
	post, err := p.doSave(ctx, key, in)
	if err != nil {
		return model.PersistedPost{}, err
	}
	p.setState(key, Saved, nil)
	return post, nil
}

// Schedule runs the save-then-schedule chain. The scheduled time is validated
// locally first: past-dated schedules never reach a collaborator.
func (p *Pipeline) Schedule(ctx context.Context, key PairKey, in Input, at time.Time) (model.ScheduledEntry, error) {
	if err := validateInput(in); err != nil {
		return model.ScheduledEntry{}, err
	}
	if at.Before(p.now()) {
		return model.ScheduledEntry{}, model.Validationf("scheduled time must not be in the past")
	}
	if err := p.begin(key); err != nil {
		return model.ScheduledEntry{}, err
	}
	start := p.now()
	post, err := p.doSave(ctx, key, in)
	if err != nil {
		return model.ScheduledEntry{}, err
	}
	p.setState(key, Scheduling, nil)
	entry, err := p.sched.Schedule(ctx, post.ID, at)
	if err != nil {
		// The saved post stays persisted; only the failing step is reported.
		return model.ScheduledEntry{}, p.fail(key, "schedule", err)
	}
	metrics.PostsScheduled.Inc()
	metrics.ObserveChainDuration(start)
	p.finish(key, post.ID, entry.ID)
	logging.Info("post_scheduled", map[string]any{
		"post_id": post.ID, "entry_id": entry.ID,
		"platform": string(in.Platform), "at": at,
	})
	return entry, nil
}

// PublishNow runs the save-then-publish chain.
func (p *Pipeline) PublishNow(ctx context.Context, key PairKey, in Input) (model.PublishResult, error) {
	if err := validateInput(in); err != nil {
		return model.PublishResult{}, err
	}
	pub, ok := p.publishers[in.Platform]
	if !ok {
		return model.PublishResult{}, model.Validationf("no publisher configured for %s", in.Platform)
	}
	if err := p.begin(key); err != nil {
		return model.PublishResult{}, err
	}
	start := p.now()
	post, err := p.doSave(ctx, key, in)
	if err != nil {
		return model.PublishResult{}, err
	}
	p.setState(key, Publishing, nil)
	res, err := pub.PublishNow(ctx, post)
	if err != nil {
		return model.PublishResult{}, p.fail(key, "publish", err)
	}
	if err := p.store.MarkPublished(ctx, post.ID, res.PlatformPostID); err != nil {
		// The platform accepted the post; a bookkeeping miss is not a publish
		// failure from the user's perspective.
		logging.Warn("mark_published_failed", map[string]any{"post_id": post.ID, "error": err.Error()})
	}
	metrics.PostsPublished.WithLabelValues(string(in.Platform)).Inc()
	metrics.ObserveChainDuration(start)
	p.finish(key, post.ID, "")
	logging.Info("post_published", map[string]any{
		"post_id": post.ID, "platform": string(in.Platform), "url": res.URL,
	})
	return res, nil
}

func validateInput(in Input) error {
	if in.Topic == "" {
		return model.Validationf("topic is required")
	}
	if in.Content == "" {
		return model.Validationf("content is required")
	}
	if !in.Platform.Valid() {
		return model.Validationf("unknown platform %q", string(in.Platform))
	}
	if !limits.IsValid(in.Content, in.Platform) {
		return model.Validationf("content exceeds %d character limit for %s",
			limits.LimitFor(in.Platform), in.Platform)
	}
	return nil
}

// begin claims the pair for a new chain. Active pairs reject re-entrant calls.
func (p *Pipeline) begin(key PairKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.pairs[key]
	if !ok {
		st = &PairStatus{State: Idle}
		p.pairs[key] = st
	}
	switch st.State {
	case Saving, Scheduling, Publishing:
		return ErrBusy
	}
	*st = PairStatus{State: Saving}
	return nil
}

func (p *Pipeline) doSave(ctx context.Context, key PairKey, in Input) (model.PersistedPost, error) {
	post, err := p.store.CreatePost(ctx, in.Topic, in.Content, in.Platform, in.Research)
	if err != nil {
		return model.PersistedPost{}, p.fail(key, "save", err)
	}
	metrics.PostsSaved.Inc()
	p.mu.Lock()
	p.pairs[key].PostID = post.ID
	p.mu.Unlock()
	return post, nil
}

func (p *Pipeline) setState(key PairKey, s State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.pairs[key]
	st.State = s
	if err != nil {
		st.Err = err.Error()
	}
}

func (p *Pipeline) finish(key PairKey, postID, entryID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.pairs[key]
	st.State = Done
	st.PostID = postID
	st.EntryID = entryID
	st.Err = ""
}

func (p *Pipeline) fail(key PairKey, step string, err error) error {
	werr := model.WrapService(step, err)
	metrics.IncFailure(step)
	logging.Error("pipeline_step_failed", map[string]any{
		"step": step, "platform": string(key.Platform), "index": key.Index,
		"error": werr.Detail,
	})
	p.setState(key, Failed, werr)
	return werr
}
