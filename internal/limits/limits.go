// Package limits is the character-limit policy for supported platforms.
package limits

import (
	"unicode/utf8"

	"postcraft/internal/model"
)

const (
	TwitterLimit  = 280
	LinkedInLimit = 3000
)

// LimitFor returns the character budget for a platform. Unknown platforms get
// the most restrictive budget.
func LimitFor(p model.Platform) int {
	switch p {
	case model.PlatformLinkedIn:
		return LinkedInLimit
	default:
		return TwitterLimit
	}
}

// Count is the one character-count function used everywhere a Suggestion's
// CharacterCount is written.
func Count(content string) int { return utf8.RuneCountInString(content) }

// IsValid reports whether content fits the platform's budget.
func IsValid(content string, p model.Platform) bool {
	return Count(content) <= LimitFor(p)
}
