// Package content holds the generated suggestion set and its edit semantics.
package content

import (
	"sync"

	"postcraft/internal/limits"
	"postcraft/internal/model"
)

// Board is the in-memory set of generated content items. It is the only piece
// of state mutated by multiple actors (user edits vs. regenerate completions);
// concurrent writes to the same platform are last-write-wins.
type Board struct {
	mu    sync.Mutex
	items []model.ContentItem
}

// NewBoard copies items into a fresh board.
func NewBoard(items []model.ContentItem) *Board {
	b := &Board{}
	b.items = deepCopy(items)
	return b
}

// Edit replaces the content of exactly one (platform, index) suggestion and
// recomputes its CharacterCount. Every other suggestion is untouched.
func (b *Board) Edit(platform model.Platform, index int, newText string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Platform != platform {
			continue
		}
		if index < 0 || index >= len(b.items[i].Suggestions) {
			return model.Validationf("no suggestion %d for %s", index, platform)
		}
		// Copy-on-write so snapshots handed out earlier stay intact.
		sugs := make([]model.Suggestion, len(b.items[i].Suggestions))
		copy(sugs, b.items[i].Suggestions)
		sugs[index].Content = newText
		sugs[index].CharacterCount = limits.Count(newText)
		b.items[i].Suggestions = sugs
		return nil
	}
	return model.Validationf("no content for platform %s", platform)
}

// Replace swaps one platform's entire suggestion list, the regenerate
// completion path. Other platforms are untouched.
func (b *Board) Replace(platform model.Platform, suggestions []model.Suggestion) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Platform != platform {
			continue
		}
		sugs := make([]model.Suggestion, len(suggestions))
		copy(sugs, suggestions)
		b.items[i].Suggestions = sugs
		return nil
	}
	return model.Validationf("no content for platform %s", platform)
}

// Suggestion returns a copy of one suggestion.
func (b *Board) Suggestion(platform model.Platform, index int) (model.Suggestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Platform != platform {
			continue
		}
		if index < 0 || index >= len(b.items[i].Suggestions) {
			return model.Suggestion{}, model.Validationf("no suggestion %d for %s", index, platform)
		}
		return b.items[i].Suggestions[index], nil
	}
	return model.Suggestion{}, model.Validationf("no content for platform %s", platform)
}

// Snapshot returns a deep copy of the current item set.
func (b *Board) Snapshot() []model.ContentItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return deepCopy(b.items)
}

func deepCopy(items []model.ContentItem) []model.ContentItem {
	out := make([]model.ContentItem, len(items))
	for i, it := range items {
		sugs := make([]model.Suggestion, len(it.Suggestions))
		copy(sugs, it.Suggestions)
		for j := range sugs {
			if it.Suggestions[j].Hashtags != nil {
				tags := make([]string, len(it.Suggestions[j].Hashtags))
				copy(tags, it.Suggestions[j].Hashtags)
				sugs[j].Hashtags = tags
			}
		}
		out[i] = model.ContentItem{Platform: it.Platform, Suggestions: sugs}
	}
	return out
}
