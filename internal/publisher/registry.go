package publisher

import (
	"postcraft/internal/config"
	"postcraft/internal/model"
	"postcraft/internal/pipeline"
)

// FromConfig builds a publisher per platform that has credentials configured.
// Platforms without credentials are simply absent from the map.
func FromConfig(cfg config.Config) map[model.Platform]pipeline.Publisher {
	out := make(map[model.Platform]pipeline.Publisher)
	cr := cfg.Credentials
	if cr.TwitterConsumerKey != "" && cr.TwitterAccessToken != "" {
		out[model.PlatformTwitter] = NewTwitter(cr.TwitterConsumerKey, cr.TwitterConsumerSecret, cr.TwitterAccessToken, cr.TwitterAccessSecret)
	}
	if cr.LinkedInAccessToken != "" && cr.LinkedInUserID != "" {
		out[model.PlatformLinkedIn] = NewLinkedIn(cr.LinkedInAccessToken, cr.LinkedInUserID)
	}
	return out
}
