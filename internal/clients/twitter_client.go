package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

var (
	ErrTweetNotFound  = errors.New("tweet not found")
	ErrInvalidTweetID = errors.New("invalid tweet id or url")
)

var (
	tweetIDPattern  = regexp.MustCompile(`^\d{1,20}$`)
	tweetURLPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status(?:es)?/(\d{1,20})`)
)

// TwitterClient looks up tweets with app-only OAuth2 credentials.
type TwitterClient struct {
	Config         *clientcredentials.Config
	APIURL         string
	InitialBackoff time.Duration

	mu     sync.Mutex
	client *http.Client
}

func NewTwitterClient(clientID, clientSecret, tokenURL, apiURL string) *TwitterClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &TwitterClient{
		Config:         oauthConf,
		APIURL:         strings.TrimSuffix(apiURL, "/"),
		InitialBackoff: INITIAL_BACKOFF,
		client:         oauthConf.Client(context.Background()),
	}
}

func (tc *TwitterClient) RefreshClient() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.client = tc.Config.Client(context.Background())
}

func (tc *TwitterClient) httpClient() *http.Client {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.client
}

// ParseTweetID accepts a bare numeric id or a twitter.com / x.com status URL.
func ParseTweetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if tweetIDPattern.MatchString(ref) {
		return ref, nil
	}
	if m := tweetURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTweetID, ref)
}

func (tc *TwitterClient) FetchTweet(ctx context.Context, ref string) (models.Tweet, error) {
	id, err := ParseTweetID(ref)
	if err != nil {
		return models.Tweet{}, err
	}

	refreshed := false
	backoff := tc.InitialBackoff
	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		status, body, err := tc.lookup(ctx, id)
		if err != nil {
			return models.Tweet{}, err
		}

		switch status {
		case http.StatusOK:
			return decodeTweet(id, body)
		case http.StatusNotFound:
			return models.Tweet{}, fmt.Errorf("%w: %s", ErrTweetNotFound, id)
		case http.StatusUnauthorized:
			if refreshed {
				return models.Tweet{}, fmt.Errorf("[TwitterClient] unauthorized after token refresh")
			}
			slog.Warn("[TwitterClient] Token expired - Refreshing and Retrying...")
			tc.RefreshClient()
			refreshed = true
		case http.StatusTooManyRequests:
			slog.Warn("[TwitterClient] 429 Too Many Requests - Retrying with backoff",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff))
			if err := sleepWithContext(ctx, backoff); err != nil {
				return models.Tweet{}, err
			}
			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
		default:
			return models.Tweet{}, fmt.Errorf("[TwitterClient] unexpected status %d", status)
		}
	}
	return models.Tweet{}, fmt.Errorf("[TwitterClient] Max retries reached request failed")
}

func (tc *TwitterClient) lookup(ctx context.Context, id string) (int, []byte, error) {
	endpoint := fmt.Sprintf("%s/tweets/%s", tc.APIURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("[TwitterClient] Failed to build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("tweet.fields", "author_id")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := tc.httpClient().Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("[TwitterClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("[TwitterClient] Failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func decodeTweet(id string, body []byte) (models.Tweet, error) {
	var lookup models.TwitterLookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return models.Tweet{}, fmt.Errorf("[TwitterClient] Failed to decode tweet: %w", err)
	}
	if lookup.Data == nil {
		detail := "no data"
		if len(lookup.Errors) > 0 {
			detail = lookup.Errors[0].Detail
		}
		return models.Tweet{}, fmt.Errorf("%w: %s (%s)", ErrTweetNotFound, id, detail)
	}
	return *lookup.Data, nil
}
