package classifier

import (
	"context"
	"fmt"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

type RemoteClassifier interface {
	Classify(ctx context.Context, text string) (models.RemoteClassificationResponse, error)
}

// RemotePredictor delegates to a hosted model that receives the raw tweet.
type RemotePredictor struct {
	client RemoteClassifier
}

func NewRemotePredictor(client RemoteClassifier) *RemotePredictor {
	return &RemotePredictor{client: client}
}

func (p *RemotePredictor) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	resp, err := p.client.Classify(ctx, in.Raw)
	if err != nil {
		return models.Classification{}, err
	}
	label, err := models.ParseLabel(resp.Label)
	if err != nil {
		return models.Classification{}, fmt.Errorf("remote classifier: %w", err)
	}
	return models.Classification{Label: label, Confidence: clamp01(resp.Score)}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func (p *RemotePredictor) HealthCheck(ctx context.Context) bool {
	if hc, ok := p.client.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return true
}
