package model

import "time"

// Platform identifies a social network we can generate for and publish to.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformTwitter || p == PlatformLinkedIn
}

// AIProvider selects the model backend used for generation.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOpenAI AIProvider = "openai"
	ProviderGemini AIProvider = "gemini"
	ProviderXAI    AIProvider = "xai"
)

// PostStatus is the lifecycle state of a persisted post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
	PostFailed    PostStatus = "failed"
)

// ScheduleStatus is the lifecycle state of a scheduled entry.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	SchedulePublished ScheduleStatus = "published"
	ScheduleCanceled  ScheduleStatus = "canceled"
	ScheduleFailed    ScheduleStatus = "failed"
)

// DraftRequest is the user's generation request, mutated only by the wizard.
// It is valid (the wizard may advance) iff Topic is non-empty and at least one
// platform is selected.
type DraftRequest struct {
	Topic             string     `validate:"required"`
	AdditionalContext string     `validate:"-"`
	Platforms         []Platform `validate:"required,min=1,dive,oneof=twitter linkedin"`
	IncludeResearch   bool       `validate:"-"`
	Provider          AIProvider `validate:"omitempty,oneof=claude openai gemini xai"`
}

// ResearchCorpus is the consolidated research text used as generation context.
type ResearchCorpus struct {
	Query       string
	Findings    []string
	Sources     []string
	FullContent string
	Timestamp   time.Time
}

// Suggestion is one generated content variant for a platform.
// CharacterCount always equals the rune length of Content; it is recomputed on
// every edit via limits.Count.
type Suggestion struct {
	Content        string
	CharacterCount int
	Hashtags       []string
	VariationNote  string
}

// ContentItem holds all suggestions generated for one platform.
type ContentItem struct {
	Platform    Platform
	Suggestions []Suggestion
}

// PersistedPost is a saved post as returned by the persistence store.
type PersistedPost struct {
	ID             string
	Topic          string
	Content        string
	Platform       Platform
	ResearchData   *ResearchCorpus
	Status         PostStatus
	PlatformPostID string
	CreatedAt      time.Time
	PublishedAt    *time.Time
}

// ScheduledEntry is a pending or settled schedule for a persisted post.
// A post is scheduled at most once at a time; re-scheduling replaces the entry.
type ScheduledEntry struct {
	ID            string
	PostID        string
	ScheduledTime time.Time
	Status        ScheduleStatus
	ErrorMessage  string
	CreatedAt     time.Time
	Post          *PersistedPost
}

// CalendarEvent is the calendar projection of one scheduled entry.
type CalendarEvent struct {
	ID             string
	Title          string
	Start          time.Time
	Platform       Platform
	Status         ScheduleStatus
	ContentPreview string
}

// PublishResult is what a platform adapter reports after a successful publish.
type PublishResult struct {
	PlatformPostID string
	URL            string
}
