package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

// HuggingFaceClient talks to a hosted classification endpoint (a Hugging Face
// space serving the fine-tuned tweet model).
type HuggingFaceClient struct {
	Client         *http.Client
	Endpoint       string
	HealthEndpoint string
	InitialBackoff time.Duration
}

func NewHuggingFaceClient(endpoint, healthEndpoint string, timeout time.Duration) *HuggingFaceClient {
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout))

	return &HuggingFaceClient{
		Client:         &http.Client{Timeout: timeout},
		Endpoint:       endpoint,
		HealthEndpoint: healthEndpoint,
		InitialBackoff: INITIAL_BACKOFF,
	}
}

func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.InitialBackoff

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		req, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}
		if err == nil {
			err = fmt.Errorf("status code %d", resp.StatusCode)
		}

		if sleepErr := sleepWithContext(ctx, backoff); sleepErr != nil {
			return nil, sleepErr
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}

	return nil, err
}

func (h *HuggingFaceClient) Classify(ctx context.Context, text string) (models.RemoteClassificationResponse, error) {
	var result models.RemoteClassificationResponse
	start := time.Now()

	err := h.postJSON(ctx, h.Endpoint, models.RemoteClassificationRequest{Text: text}, &result)
	if err != nil {
		slog.Error("[HuggingFaceClient] Classification request failed",
			slog.Duration("elapsed", time.Since(start)))
		return result, err
	}

	slog.Debug("[HuggingFaceClient] Classification request successful",
		slog.String("label", result.Label),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// HealthCheck reports whether the health endpoint answers 2xx. Without a
// health endpoint the service is assumed healthy.
func (h *HuggingFaceClient) HealthCheck(ctx context.Context) bool {
	if h.HealthEndpoint == "" {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.HealthEndpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Warn("[HuggingFaceClient] Health check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// helper function for posting data to the inference service
func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))

		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to read response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, getPreview(respBody).Value.String())
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
