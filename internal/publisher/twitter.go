package publisher

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"postcraft/internal/model"
)

// Twitter posts tweets through the v2 API using OAuth 1.0a user context.
type Twitter struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	accessToken    string
	accessSecret   string
	doer           *httpDoer
	nonce          func() string
	now            func() time.Time
}

func NewTwitter(consumerKey, consumerSecret, accessToken, accessSecret string) *Twitter {
	return &Twitter{
		baseURL:        "https://api.twitter.com/2",
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		accessToken:    accessToken,
		accessSecret:   accessSecret,
		doer:           newHTTPDoer(),
		nonce:          randomNonce,
		now:            time.Now,
	}
}

// PublishNow posts the content as a tweet and returns its id and public URL.
func (t *Twitter) PublishNow(ctx context.Context, post model.PersistedPost) (model.PublishResult, error) {
	if t.consumerKey == "" || t.accessToken == "" {
		return model.PublishResult{}, errors.New("twitter credentials not configured")
	}
	payload, _ := json.Marshal(map[string]string{"text": post.Content})
	endpoint := t.baseURL + "/tweets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.PublishResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", t.authHeader(http.MethodPost, endpoint))

	resp, err := t.doer.do(ctx, req)
	if err != nil {
		return model.PublishResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.PublishResult{}, fmt.Errorf("twitter api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var raw struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.PublishResult{}, err
	}
	if raw.Data.ID == "" {
		return model.PublishResult{}, errors.New("twitter api returned no tweet id")
	}
	return model.PublishResult{
		PlatformPostID: raw.Data.ID,
		URL:            "https://twitter.com/i/status/" + raw.Data.ID,
	}, nil
}

// authHeader builds the OAuth 1.0a Authorization header. The request body is
// JSON so only the oauth parameters enter the signature base string.
func (t *Twitter) authHeader(method, endpoint string) string {
	params := map[string]string{
		"oauth_consumer_key":     t.consumerKey,
		"oauth_nonce":            t.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(t.now().Unix(), 10),
		"oauth_token":            t.accessToken,
		"oauth_version":          "1.0",
	}
	params["oauth_signature"] = t.sign(method, endpoint, params)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(percentEncode(k))
		b.WriteString(`="`)
		b.WriteString(percentEncode(params[k]))
		b.WriteString(`"`)
	}
	return b.String()
}

func (t *Twitter) sign(method, endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}
	base := strings.ToUpper(method) + "&" + percentEncode(endpoint) + "&" + percentEncode(strings.Join(pairs, "&"))
	key := percentEncode(t.consumerSecret) + "&" + percentEncode(t.accessSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 encoding as OAuth 1.0a requires.
func percentEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteString(fmt.Sprintf("%%%02X", c))
	}
	return b.String()
}

func randomNonce() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
