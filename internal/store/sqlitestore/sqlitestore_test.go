package sqlitestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"postcraft/internal/model"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustCreate(t *testing.T, db *DB, platform model.Platform) model.PersistedPost {
	t.Helper()
	post, err := db.CreatePost(context.Background(), "Go news", "Go 1.25 is out.", platform, nil)
	if err != nil {
		t.Fatal(err)
	}
	return post
}

func TestCreateAndGetPost(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	research := &model.ResearchCorpus{
		Query:       "Go news",
		Findings:    []string{"fact one"},
		Sources:     []string{"Source: blog"},
		FullContent: "fact one",
		Timestamp:   time.Now().UTC().Truncate(time.Second),
	}
	post, err := db.CreatePost(ctx, "Go news", "Go 1.25 is out.", model.PlatformTwitter, research)
	if err != nil {
		t.Fatal(err)
	}
	if post.ID == "" || post.Status != model.PostDraft {
		t.Fatalf("unexpected post %+v", post)
	}

	got, err := db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Topic != "Go news" || got.Content != "Go 1.25 is out." || got.Platform != model.PlatformTwitter {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.ResearchData == nil || got.ResearchData.Findings[0] != "fact one" {
		t.Fatalf("research not persisted: %+v", got.ResearchData)
	}

	if _, err := db.GetPost(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	mustCreate(t, db, model.PlatformTwitter)
	mustCreate(t, db, model.PlatformLinkedIn)

	posts, err := db.ListPosts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts", len(posts))
	}
}

func TestScheduleAndReplace(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)

	first := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	entry, err := db.Schedule(ctx, post.ID, first)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Status != model.ScheduleScheduled || !entry.ScheduledTime.Equal(first) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Post.Status != model.PostScheduled {
		t.Fatalf("post status = %s", entry.Post.Status)
	}

	// Re-scheduling the same post replaces the entry, not adds one.
	second := first.Add(2 * time.Hour)
	replaced, err := db.Schedule(ctx, post.ID, second)
	if err != nil {
		t.Fatal(err)
	}
	if replaced.ID != entry.ID {
		t.Fatalf("expected same entry id, got %s vs %s", replaced.ID, entry.ID)
	}
	upcoming, err := db.ListUpcoming(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 || !upcoming[0].ScheduledTime.Equal(second) {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	if _, err := db.Schedule(ctx, "missing", first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRescheduleClearsFailure(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)
	when := time.Now().Add(time.Hour).UTC()

	entry, err := db.Schedule(ctx, post.ID, when)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.MarkEntryFailed(ctx, entry.ID, "network down"); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Schedule(ctx, post.ID, when.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	upcoming, err := db.ListUpcoming(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 || upcoming[0].Status != model.ScheduleScheduled || upcoming[0].ErrorMessage != "" {
		t.Fatalf("upcoming = %+v", upcoming)
	}
}

func TestCancel(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)
	when := time.Now().Add(time.Hour).UTC()

	entry, err := db.Schedule(ctx, post.ID, when)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Cancel(ctx, entry.ID); err != nil {
		t.Fatal(err)
	}

	// Canceled entries leave the upcoming list and the calendar.
	upcoming, _ := db.ListUpcoming(ctx, 10)
	if len(upcoming) != 0 {
		t.Fatalf("upcoming = %+v", upcoming)
	}
	events, _ := db.CalendarRange(ctx, when.Add(-time.Hour), when.Add(time.Hour))
	if len(events) != 0 {
		t.Fatalf("calendar = %+v", events)
	}

	// The post reverts to draft and can be scheduled again.
	p, err := db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PostDraft {
		t.Fatalf("post status = %s", p.Status)
	}

	// Only pending entries can be canceled.
	if err := db.Cancel(ctx, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel: want ErrNotFound, got %v", err)
	}
	if err := db.Cancel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkEntryPublished(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)
	entry, err := db.Schedule(ctx, post.ID, time.Now().Add(time.Hour).UTC())
	if err != nil {
		t.Fatal(err)
	}

	if err := db.MarkEntryPublished(ctx, entry.ID, "tweet-9"); err != nil {
		t.Fatal(err)
	}
	p, err := db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PostPublished || p.PlatformPostID != "tweet-9" || p.PublishedAt == nil {
		t.Fatalf("post = %+v", p)
	}
	upcoming, _ := db.ListUpcoming(ctx, 10)
	if len(upcoming) != 0 {
		t.Fatalf("published entry still upcoming: %+v", upcoming)
	}
}

func TestDuePending(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	duePost := mustCreate(t, db, model.PlatformTwitter)
	futurePost := mustCreate(t, db, model.PlatformLinkedIn)
	if _, err := db.Schedule(ctx, duePost.ID, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Schedule(ctx, futurePost.ID, now.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	due, err := db.DuePending(ctx, now.Add(time.Minute), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].PostID != duePost.ID {
		t.Fatalf("due = %+v", due)
	}
	if due[0].Post == nil || due[0].Post.Content == "" {
		t.Fatal("due entry must carry its post")
	}
}

func TestMarkPublishedDirect(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)

	if err := db.MarkPublished(ctx, post.ID, "tweet-1"); err != nil {
		t.Fatal(err)
	}
	p, _ := db.GetPost(ctx, post.ID)
	if p.Status != model.PostPublished || p.PlatformPostID != "tweet-1" {
		t.Fatalf("post = %+v", p)
	}
	if err := db.MarkPublished(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCounts(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	a := mustCreate(t, db, model.PlatformTwitter)
	mustCreate(t, db, model.PlatformTwitter)
	if err := db.MarkPublished(ctx, a.ID, "id"); err != nil {
		t.Fatal(err)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[model.PostDraft] != 1 || counts[model.PostPublished] != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestUpdatePostContent(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	post := mustCreate(t, db, model.PlatformTwitter)

	if err := db.UpdatePostContent(ctx, post.ID, "edited"); err != nil {
		t.Fatal(err)
	}
	p, _ := db.GetPost(ctx, post.ID)
	if p.Content != "edited" {
		t.Fatalf("content = %q", p.Content)
	}
}
