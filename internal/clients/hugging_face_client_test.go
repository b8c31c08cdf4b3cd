package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

func TestHuggingFaceClassifyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req models.RemoteClassificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text != "the tweet" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(models.RemoteClassificationResponse{Label: "LABEL_1", Score: 0.8})
	}))
	defer srv.Close()

	hf := NewHuggingFaceClient(srv.URL, "", time.Second)
	hf.InitialBackoff = time.Millisecond

	got, err := hf.Classify(context.Background(), "the tweet")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Label != "LABEL_1" || got.Score != 0.8 {
		t.Fatalf("response = %+v", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestHuggingFaceClassifyClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"text too long"}`))
	}))
	defer srv.Close()

	hf := NewHuggingFaceClient(srv.URL, "", time.Second)
	hf.InitialBackoff = time.Millisecond
	if _, err := hf.Classify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 422")
	}
}

func TestHuggingFaceHealthCheck(t *testing.T) {
	healthy := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	hf := NewHuggingFaceClient(srv.URL, srv.URL+"/health", time.Second)
	if hf.HealthCheck(context.Background()) {
		t.Fatal("expected unhealthy")
	}
	healthy.Store(true)
	if !hf.HealthCheck(context.Background()) {
		t.Fatal("expected healthy")
	}

	if !NewHuggingFaceClient(srv.URL, "", time.Second).HealthCheck(context.Background()) {
		t.Fatal("no health endpoint should report healthy")
	}
}
