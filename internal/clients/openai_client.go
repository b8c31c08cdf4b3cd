package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests
	openAIRetryAttempts  = 3
)

const stanceSystemPrompt = `You classify tweets by their stance toward man-made climate change.
Answer with a JSON object {"label": <label>, "confidence": <0..1>, "reason": <short reason>} where label is one of:
"anti" - the tweet does not believe in man-made climate change
"neutral" - the tweet neither supports nor refutes the belief of man-made climate change
"pro" - the tweet supports the belief of man-made climate change
"news" - the tweet links to factual news about climate change`

type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIClient struct {
	Client         ChatCompleter
	Model          string
	InitialBackoff time.Duration
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("[OpenAIClient] missing OPENAI_API_KEY")
	}
	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{
		Timeout: openAIRequestTimeout,
	}

	slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout",
		slog.Duration("timeout", openAIRequestTimeout),
		slog.String("model", model))

	return &OpenAIClient{
		Client:         openai.NewClientWithConfig(config),
		Model:          model,
		InitialBackoff: INITIAL_BACKOFF,
	}, nil
}

// ClassifyStance asks the chat model for a stance label on tweet.
func (o *OpenAIClient) ClassifyStance(ctx context.Context, tweet string) (models.LLMClassificationResponse, error) {
	var result models.LLMClassificationResponse
	var resp openai.ChatCompletionResponse
	var err error

	req := openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: stanceSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: tweet},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	backoff := o.InitialBackoff
	if backoff <= 0 {
		backoff = INITIAL_BACKOFF
	}
	for i := 0; i < openAIRetryAttempts; i++ {
		start := time.Now()
		resp, err = o.Client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if i == openAIRetryAttempts-1 {
			break
		}
		slog.Warn("[OpenAIClient] Failed to get a response from OpenAI, retrying...",
			slog.String("error", err.Error()),
			slog.Int("attempt", i+1),
			slog.Duration("elapsed", time.Since(start)),
			slog.Duration("backoff", backoff))
		if sleepErr := sleepWithContext(ctx, backoff); sleepErr != nil {
			return result, sleepErr
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}
	if err != nil {
		return result, fmt.Errorf("chat completion failed after %d attempts: %w", openAIRetryAttempts, err)
	}
	if len(resp.Choices) == 0 {
		return result, fmt.Errorf("chat completion returned no choices")
	}

	content := CleanCodeBlock(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return result, fmt.Errorf("decode stance response: %w", err)
	}
	return result, nil
}

// CleanCodeBlock strips a Markdown code fence around a JSON payload.
func CleanCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
