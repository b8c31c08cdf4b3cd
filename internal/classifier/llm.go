package classifier

import (
	"context"
	"fmt"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

type StanceClassifier interface {
	ClassifyStance(ctx context.Context, tweet string) (models.LLMClassificationResponse, error)
}

// LLMPredictor performs zero-shot classification with a chat model.
type LLMPredictor struct {
	client StanceClassifier
}

func NewLLMPredictor(client StanceClassifier) *LLMPredictor {
	return &LLMPredictor{client: client}
}

func (p *LLMPredictor) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	resp, err := p.client.ClassifyStance(ctx, in.Raw)
	if err != nil {
		return models.Classification{}, err
	}
	label, err := models.ParseLabel(resp.Label)
	if err != nil {
		return models.Classification{}, fmt.Errorf("llm classifier: %w", err)
	}
	return models.Classification{Label: label, Confidence: clamp01(resp.Confidence)}, nil
}
