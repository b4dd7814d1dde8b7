// Package schedule projects persisted scheduled entries into calendar and
// time-bucketed list views. It is read-only over the schedule store except for
// cancel, which invalidates both projections.
package schedule

import (
	"context"
	"sync"
	"time"

	"postcraft/internal/model"
	"postcraft/internal/util"
)

// Bucket is one of the four fixed time-grouping labels of the list view.
type Bucket string

const (
	BucketToday    Bucket = "Today"
	BucketTomorrow Bucket = "Tomorrow"
	BucketThisWeek Bucket = "This Week"
	BucketLater    Bucket = "Later"
)

// BucketOrder is the display order of the grouped list.
var BucketOrder = []Bucket{BucketToday, BucketTomorrow, BucketThisWeek, BucketLater}

const previewLen = 100

// BucketFor assigns an entry's scheduled time to exactly one bucket using
// calendar-day semantics. "This Week" spans the remainder of the current week
// through Saturday; everything else, past days included, lands in "Later".
func BucketFor(t, now time.Time) Bucket {
	day := startOfDay(now)
	target := startOfDay(t)
	switch {
	case target.Equal(day):
		return BucketToday
	case target.Equal(day.AddDate(0, 0, 1)):
		return BucketTomorrow
	case target.After(day) && target.Before(weekEnd(day)):
		return BucketThisWeek
	default:
		return BucketLater
	}
}

// GroupEntries splits entries into buckets. Assignment is mutually exclusive
// and exhaustive: every entry lands in exactly one bucket.
func GroupEntries(entries []model.ScheduledEntry, now time.Time) map[Bucket][]model.ScheduledEntry {
	groups := make(map[Bucket][]model.ScheduledEntry, len(BucketOrder))
	for _, e := range entries {
		b := BucketFor(e.ScheduledTime, now)
		groups[b] = append(groups[b], e)
	}
	return groups
}

// EventFor is the calendar projection of one entry.
func EventFor(e model.ScheduledEntry) model.CalendarEvent {
	ev := model.CalendarEvent{
		ID:     e.ID,
		Title:  "Scheduled Post",
		Start:  e.ScheduledTime,
		Status: e.Status,
	}
	if e.Post != nil {
		if e.Post.Topic != "" {
			ev.Title = e.Post.Topic
		}
		ev.Platform = e.Post.Platform
		ev.ContentPreview = util.Truncate(e.Post.Content, previewLen)
	}
	return ev
}

// Service is the schedule store the view reads from.
type Service interface {
	CalendarRange(ctx context.Context, start, end time.Time) ([]model.ScheduledEntry, error)
	ListUpcoming(ctx context.Context, limit int) ([]model.ScheduledEntry, error)
	Cancel(ctx context.Context, entryID string) error
}

// View caches the calendar and grouped-list projections over one Service.
// Cancel invalidates both caches so neither view serves stale data.
type View struct {
	svc Service
	now func() time.Time

	mu        sync.Mutex
	calKey    [2]time.Time
	calCache  []model.CalendarEvent
	calValid  bool
	listKey   int
	listCache []model.ScheduledEntry
	listValid bool
}

func NewView(svc Service) *View {
	return &View{svc: svc, now: time.Now}
}

// Calendar returns one event per entry intersecting [start, end], ordered by
// scheduled time.
func (v *View) Calendar(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	key := [2]time.Time{start, end}
	v.mu.Lock()
	if v.calValid && v.calKey == key {
		out := append([]model.CalendarEvent(nil), v.calCache...)
		v.mu.Unlock()
		return out, nil
	}
	v.mu.Unlock()

	entries, err := v.svc.CalendarRange(ctx, start, end)
	if err != nil {
		return nil, model.WrapService("calendar", err)
	}
	events := make([]model.CalendarEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, EventFor(e))
	}
	v.mu.Lock()
	v.calKey = key
	v.calCache = events
	v.calValid = true
	v.mu.Unlock()
	return append([]model.CalendarEvent(nil), events...), nil
}

// Grouped returns the upcoming entries bucketed by day.
func (v *View) Grouped(ctx context.Context, limit int) (map[Bucket][]model.ScheduledEntry, error) {
	v.mu.Lock()
	if v.listValid && v.listKey == limit {
		entries := append([]model.ScheduledEntry(nil), v.listCache...)
		v.mu.Unlock()
		return GroupEntries(entries, v.now()), nil
	}
	v.mu.Unlock()

	entries, err := v.svc.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, model.WrapService("list", err)
	}
	v.mu.Lock()
	v.listKey = limit
	v.listCache = entries
	v.listValid = true
	v.mu.Unlock()
	return GroupEntries(entries, v.now()), nil
}

// Cancel transitions an entry to canceled and drops both cached projections.
func (v *View) Cancel(ctx context.Context, entryID string) error {
	if err := v.svc.Cancel(ctx, entryID); err != nil {
		return model.WrapService("cancel", err)
	}
	v.mu.Lock()
	v.calValid = false
	v.listValid = false
	v.mu.Unlock()
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekEnd is the start of next week's Sunday relative to day.
func weekEnd(day time.Time) time.Time {
	return day.AddDate(0, 0, 7-int(day.Weekday()))
}
