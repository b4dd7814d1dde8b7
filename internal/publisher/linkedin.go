package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"postcraft/internal/model"
)

// LinkedIn posts text shares through the UGC Posts API.
type LinkedIn struct {
	baseURL     string
	accessToken string
	userID      string
	doer        *httpDoer
}

func NewLinkedIn(accessToken, userID string) *LinkedIn {
	return &LinkedIn{
		baseURL:     "https://api.linkedin.com/v2",
		accessToken: accessToken,
		userID:      userID,
		doer:        newHTTPDoer(),
	}
}

// PublishNow creates a public text share. The post id comes back in the
// X-RestLi-Id response header.
func (l *LinkedIn) PublishNow(ctx context.Context, post model.PersistedPost) (model.PublishResult, error) {
	if l.accessToken == "" || l.userID == "" {
		return model.PublishResult{}, errors.New("linkedin credentials not configured")
	}
	payload, _ := json.Marshal(map[string]any{
		"author":         "urn:li:person:" + l.userID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": post.Content},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return model.PublishResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+l.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.doer.do(ctx, req)
	if err != nil {
		return model.PublishResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.PublishResult{}, fmt.Errorf("linkedin api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	id := resp.Header.Get("X-RestLi-Id")
	if id == "" {
		var raw struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
			id = raw.ID
		}
	}
	if id == "" {
		return model.PublishResult{}, errors.New("linkedin api returned no post id")
	}
	return model.PublishResult{
		PlatformPostID: id,
		URL:            "https://www.linkedin.com/feed/update/" + id + "/",
	}, nil
}
