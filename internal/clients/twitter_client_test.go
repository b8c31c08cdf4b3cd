package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseTweetID(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"1234567890", "1234567890", false},
		{"  42 ", "42", false},
		{"https://twitter.com/someone/status/1234", "1234", false},
		{"https://x.com/someone/status/987?s=20", "987", false},
		{"https://mobile.twitter.com/a/statuses/55", "55", false},
		{"https://example.com/status/12", "", true},
		{"not a tweet", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTweetID(tt.ref)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTweetID) {
				t.Errorf("ParseTweetID(%q) err = %v, want ErrInvalidTweetID", tt.ref, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTweetID(%q) = %q, %v; want %q", tt.ref, got, err, tt.want)
		}
	}
}

type twitterStub struct {
	tokens       atomic.Int32
	lookups      atomic.Int32
	unauthorized atomic.Int32
	throttled    atomic.Int32
}

func (s *twitterStub) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		n := s.tokens.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":3600}`, n)
	})
	mux.HandleFunc("GET /2/tweets/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.lookups.Add(1)
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer token-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.unauthorized.Load() > 0 {
			s.unauthorized.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.throttled.Load() > 0 {
			s.throttled.Add(-1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		switch id := r.PathValue("id"); id {
		case "404":
			w.WriteHeader(http.StatusNotFound)
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		case "1":
			fmt.Fprint(w, `{"errors":[{"title":"Not Found Error","detail":"Could not find tweet with id: [1]."}]}`)
		default:
			fmt.Fprintf(w, `{"data":{"id":%q,"text":"Climate change is real","author_id":"7"}}`, id)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStubTwitterClient(t *testing.T, stub *twitterStub) *TwitterClient {
	srv := stub.server(t)
	tc := NewTwitterClient("id", "secret", srv.URL+"/oauth2/token", srv.URL+"/2/")
	tc.InitialBackoff = time.Millisecond
	return tc
}

func TestFetchTweet(t *testing.T) {
	stub := &twitterStub{}
	tc := newStubTwitterClient(t, stub)

	tweet, err := tc.FetchTweet(context.Background(), "https://x.com/someone/status/99")
	if err != nil {
		t.Fatalf("FetchTweet: %v", err)
	}
	if tweet.ID != "99" || tweet.Text != "Climate change is real" || tweet.AuthorID != "7" {
		t.Fatalf("tweet = %+v", tweet)
	}
}

func TestFetchTweetRefreshesOnUnauthorized(t *testing.T) {
	stub := &twitterStub{}
	stub.unauthorized.Store(1)
	tc := newStubTwitterClient(t, stub)

	if _, err := tc.FetchTweet(context.Background(), "99"); err != nil {
		t.Fatalf("FetchTweet: %v", err)
	}
	if n := stub.tokens.Load(); n != 2 {
		t.Fatalf("token requests = %d, want 2", n)
	}

	stub.unauthorized.Store(2)
	if _, err := tc.FetchTweet(context.Background(), "99"); err == nil {
		t.Fatal("expected error when the refreshed token is rejected too")
	}
}

func TestFetchTweetBacksOffOnRateLimit(t *testing.T) {
	stub := &twitterStub{}
	stub.throttled.Store(2)
	tc := newStubTwitterClient(t, stub)

	if _, err := tc.FetchTweet(context.Background(), "99"); err != nil {
		t.Fatalf("FetchTweet: %v", err)
	}
	if n := stub.lookups.Load(); n != 3 {
		t.Fatalf("lookups = %d, want 3", n)
	}
}

func TestFetchTweetErrors(t *testing.T) {
	stub := &twitterStub{}
	tc := newStubTwitterClient(t, stub)

	if _, err := tc.FetchTweet(context.Background(), "404"); !errors.Is(err, ErrTweetNotFound) {
		t.Errorf("404 err = %v", err)
	}
	if _, err := tc.FetchTweet(context.Background(), "1"); !errors.Is(err, ErrTweetNotFound) {
		t.Errorf("error payload err = %v", err)
	}
	if _, err := tc.FetchTweet(context.Background(), "500"); err == nil || errors.Is(err, ErrTweetNotFound) {
		t.Errorf("500 err = %v", err)
	}
	if _, err := tc.FetchTweet(context.Background(), "nope"); !errors.Is(err, ErrInvalidTweetID) {
		t.Errorf("invalid ref err = %v", err)
	}
}
