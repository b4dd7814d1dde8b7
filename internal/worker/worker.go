// Package worker runs the deferred-publish loop: pending schedule entries
// whose time has passed are published and settled.
package worker

import (
	"context"
	"time"

	"postcraft/internal/logging"
	"postcraft/internal/metrics"
	"postcraft/internal/model"
)

// Store is the persistence surface the worker needs.
type Store interface {
	DuePending(ctx context.Context, now time.Time, limit int) ([]model.ScheduledEntry, error)
	MarkEntryPublished(ctx context.Context, entryID, platformPostID string) error
	MarkEntryFailed(ctx context.Context, entryID, msg string) error
}

// Publisher posts one piece of content to its platform.
type Publisher interface {
	PublishNow(ctx context.Context, post model.PersistedPost) (model.PublishResult, error)
}

// Worker drains due entries on a fixed interval.
type Worker struct {
	store      Store
	publishers map[model.Platform]Publisher
	now        func() time.Time
	batchSize  int
}

func New(store Store, publishers map[model.Platform]Publisher) *Worker {
	return &Worker{store: store, publishers: publishers, now: time.Now, batchSize: 50}
}

// RunOnce publishes every due entry and returns how many it settled.
// A failing entry is marked failed and does not stop the batch.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	due, err := w.store.DuePending(ctx, w.now(), w.batchSize)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, entry := range due {
		if entry.Post == nil {
			continue
		}
		pub, ok := w.publishers[entry.Post.Platform]
		if !ok {
			_ = w.store.MarkEntryFailed(ctx, entry.ID, "no publisher configured for "+string(entry.Post.Platform))
			metrics.IncFailure("publish")
			settled++
			continue
		}
		res, err := pub.PublishNow(ctx, *entry.Post)
		if err != nil {
			_ = w.store.MarkEntryFailed(ctx, entry.ID, err.Error())
			metrics.IncFailure("publish")
			logging.Error("deferred publish failed", map[string]any{"entry": entry.ID, "platform": entry.Post.Platform, "err": err.Error()})
			settled++
			continue
		}
		if err := w.store.MarkEntryPublished(ctx, entry.ID, res.PlatformPostID); err != nil {
			// The platform accepted the post. Park the entry as failed so the
			// next pass cannot publish it a second time.
			_ = w.store.MarkEntryFailed(ctx, entry.ID, "published but unsettled, platform post id "+res.PlatformPostID)
			logging.Warn("publish succeeded but entry not settled", map[string]any{"entry": entry.ID, "err": err.Error()})
			settled++
			continue
		}
		metrics.PostsPublished.WithLabelValues(string(entry.Post.Platform)).Inc()
		logging.Info("deferred publish done", map[string]any{"entry": entry.ID, "platform": entry.Post.Platform, "url": res.URL})
		settled++
	}
	return settled, nil
}

// RunLoop polls until the context is canceled.
func (w *Worker) RunLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			logging.Error("worker pass failed", map[string]any{"err": err.Error()})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
