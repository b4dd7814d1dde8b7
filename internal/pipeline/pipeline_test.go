package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"postcraft/internal/model"
)

type fakeStore struct {
	createCalls  int
	createErr    error
	markedPostID string
	markedPlatID string
}

func (f *fakeStore) CreatePost(_ context.Context, topic, content string, platform model.Platform, research *model.ResearchCorpus) (model.PersistedPost, error) {
	f.createCalls++
	if f.createErr != nil {
		return model.PersistedPost{}, f.createErr
	}
	return model.PersistedPost{ID: "post-1", Topic: topic, Content: content, Platform: platform, ResearchData: research, Status: model.PostDraft}, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, postID, platformPostID string) error {
	f.markedPostID = postID
	f.markedPlatID = platformPostID
	return nil
}

type fakeSched struct {
	calls int
	err   error
	fn    func()
}

func (f *fakeSched) Schedule(_ context.Context, postID string, at time.Time) (model.ScheduledEntry, error) {
	f.calls++
	if f.fn != nil {
		f.fn()
	}
	if f.err != nil {
		return model.ScheduledEntry{}, f.err
	}
	return model.ScheduledEntry{ID: "entry-1", PostID: postID, ScheduledTime: at, Status: model.ScheduleScheduled}, nil
}

type fakePub struct {
	calls int
	err   error
}

func (f *fakePub) PublishNow(_ context.Context, post model.PersistedPost) (model.PublishResult, error) {
	f.calls++
	if f.err != nil {
		return model.PublishResult{}, f.err
	}
	return model.PublishResult{PlatformPostID: "777", URL: "https://twitter.com/i/status/777"}, nil
}

func newTestPipeline(store *fakeStore, sched *fakeSched, pub *fakePub) *Pipeline {
	pubs := map[model.Platform]Publisher{}
	if pub != nil {
		pubs[model.PlatformTwitter] = pub
	}
	p := New(store, sched, pubs)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func input() Input {
	return Input{Topic: "Go releases", Content: "Go 1.25 is out.", Platform: model.PlatformTwitter}
}

func TestSaveEndsInSaved(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(store, &fakeSched{}, nil)
	key := PairKey{Platform: model.PlatformTwitter, Index: 0}

	post, err := p.Save(context.Background(), key, input())
	require.NoError(t, err)
	require.Equal(t, "post-1", post.ID)
	require.Equal(t, 1, store.createCalls)

	st := p.StateOf(key)
	require.Equal(t, Saved, st.State)
	require.Equal(t, "post-1", st.PostID)
}

func TestPastTimeScheduleNeverReachesCollaborators(t *testing.T) {
	store := &fakeStore{}
	sched := &fakeSched{}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	past := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	_, err := p.Schedule(context.Background(), key, input(), past)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 0, store.createCalls)
	require.Equal(t, 0, sched.calls)
	require.Equal(t, Idle, p.StateOf(key).State)
}

func TestSaveFailureStopsTheChain(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	sched := &fakeSched{}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	_, err := p.Schedule(context.Background(), key, input(), p.now().Add(time.Hour))
	require.Error(t, err)
	require.Contains(t, err.Error(), "save failed")
	require.Equal(t, 0, sched.calls)
	require.Equal(t, Failed, p.StateOf(key).State)
}

func TestScheduleFailureKeepsSavedPost(t *testing.T) {
	store := &fakeStore{}
	sched := &fakeSched{err: errors.New("quota exceeded")}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	_, err := p.Schedule(context.Background(), key, input(), p.now().Add(time.Hour))
	require.Error(t, err)
	// Only the failing step is reported, with the service detail intact.
	require.Equal(t, "schedule failed: quota exceeded", err.Error())
	require.NotContains(t, err.Error(), "save")
	// The first step's work is not rolled back.
	require.Equal(t, 1, store.createCalls)

	st := p.StateOf(key)
	require.Equal(t, Failed, st.State)
	require.Equal(t, "post-1", st.PostID)
}

func TestScheduleAtExactlyNowIsAccepted(t *testing.T) {
	store := &fakeStore{}
	sched := &fakeSched{}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	_, err := p.Schedule(context.Background(), key, input(), p.now())
	require.NoError(t, err)
	require.Equal(t, 1, sched.calls)
}

func TestScheduleSuccess(t *testing.T) {
	store := &fakeStore{}
	sched := &fakeSched{}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	entry, err := p.Schedule(context.Background(), key, input(), p.now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "entry-1", entry.ID)

	st := p.StateOf(key)
	require.Equal(t, Done, st.State)
	require.Equal(t, "entry-1", st.EntryID)
}

func TestPublishNow(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePub{}
	p := newTestPipeline(store, &fakeSched{}, pub)
	key := PairKey{Platform: model.PlatformTwitter}

	res, err := p.PublishNow(context.Background(), key, input())
	require.NoError(t, err)
	require.Equal(t, "777", res.PlatformPostID)
	require.Equal(t, "https://twitter.com/i/status/777", res.URL)
	require.Equal(t, "post-1", store.markedPostID)
	require.Equal(t, "777", store.markedPlatID)
	require.Equal(t, Done, p.StateOf(key).State)
}

func TestPublishSaveFailureIssuesZeroPublishCalls(t *testing.T) {
	store := &fakeStore{createErr: errors.New("quota exceeded")}
	pub := &fakePub{}
	p := newTestPipeline(store, &fakeSched{}, pub)
	key := PairKey{Platform: model.PlatformTwitter}

	_, err := p.PublishNow(context.Background(), key, input())
	require.Error(t, err)
	require.Equal(t, "save failed: quota exceeded", err.Error())
	require.Equal(t, 0, pub.calls)
	require.Equal(t, Failed, p.StateOf(key).State)
}

func TestFailedPairIsRetryable(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	p := newTestPipeline(store, &fakeSched{}, nil)
	key := PairKey{Platform: model.PlatformTwitter}
	ctx := context.Background()

	_, err := p.Save(ctx, key, input())
	require.Error(t, err)
	require.Equal(t, Failed, p.StateOf(key).State)

	store.createErr = nil
	_, err = p.Save(ctx, key, input())
	require.NoError(t, err)
	st := p.StateOf(key)
	require.Equal(t, Saved, st.State)
	require.Empty(t, st.Err)
}

func TestPublishWithoutConfiguredPublisher(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(store, &fakeSched{}, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	_, err := p.PublishNow(context.Background(), key, input())
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	// Rejected before anything was persisted.
	require.Equal(t, 0, store.createCalls)
}

func TestBusyPairRejectsReentrantCalls(t *testing.T) {
	store := &fakeStore{}
	sched := &fakeSched{}
	p := newTestPipeline(store, sched, nil)
	key := PairKey{Platform: model.PlatformTwitter}

	// Re-enter while the schedule step is in flight.
	var reentrant error
	sched.fn = func() {
		_, reentrant = p.Save(context.Background(), key, input())
	}
	_, err := p.Schedule(context.Background(), key, input(), p.now().Add(time.Hour))
	require.NoError(t, err)
	require.ErrorIs(t, reentrant, ErrBusy)
	require.Equal(t, 1, store.createCalls)
}

func TestPairsAreIndependent(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(store, &fakeSched{err: errors.New("boom")}, &fakePub{})
	ctx := context.Background()

	_, err := p.Schedule(ctx, PairKey{Platform: model.PlatformTwitter, Index: 0}, input(), p.now().Add(time.Hour))
	require.Error(t, err)

	// A failure on index 0 does not block index 1.
	_, err = p.PublishNow(ctx, PairKey{Platform: model.PlatformTwitter, Index: 1}, input())
	require.NoError(t, err)
	require.Equal(t, Failed, p.StateOf(PairKey{Platform: model.PlatformTwitter, Index: 0}).State)
	require.Equal(t, Done, p.StateOf(PairKey{Platform: model.PlatformTwitter, Index: 1}).State)
}

func TestValidateInput(t *testing.T) {
	p := newTestPipeline(&fakeStore{}, &fakeSched{}, nil)
	key := PairKey{Platform: model.PlatformTwitter}
	ctx := context.Background()

	cases := []Input{
		{Content: "x", Platform: model.PlatformTwitter},                                      // no topic
		{Topic: "t", Platform: model.PlatformTwitter},                                        // no content
		{Topic: "t", Content: "x", Platform: model.Platform("mastodon")},                     // bad platform
		{Topic: "t", Content: strings.Repeat("a", 281), Platform: model.PlatformTwitter},     // over limit
	}
	for _, in := range cases {
		_, err := p.Save(ctx, key, in)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr, "input %+v", in)
	}

	// The same 281 characters fit linkedin's budget.
	long := Input{Topic: "t", Content: strings.Repeat("a", 281), Platform: model.PlatformLinkedIn}
	_, err := p.Save(ctx, PairKey{Platform: model.PlatformLinkedIn}, long)
	require.NoError(t, err)
}
