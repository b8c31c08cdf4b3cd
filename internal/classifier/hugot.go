package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

// HugotPredictor runs a fine-tuned ONNX text classification model from disk.
// The model's id2label must use the sentiment codes or names.
type HugotPredictor struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

func NewHugotPredictor(modelPath string) (*HugotPredictor, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("hugot model path: %w", err)
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("init hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "tweetStancePipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[HugotPredictor] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("init text classification pipeline: %w", err)
	}

	slog.Info("[HugotPredictor] Pipeline ready", slog.String("path", modelPath))
	return &HugotPredictor{session: session, pipeline: pipeline}, nil
}

func (h *HugotPredictor) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	if err := ctx.Err(); err != nil {
		return models.Classification{}, err
	}

	h.mu.Lock()
	output, err := h.pipeline.RunPipeline([]string{RemoveLinks(in.Raw)})
	h.mu.Unlock()
	if err != nil {
		return models.Classification{}, fmt.Errorf("run pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 || len(output.ClassificationOutputs[0]) == 0 {
		return models.Classification{}, fmt.Errorf("pipeline returned no classification")
	}

	return pickClassification(output.ClassificationOutputs[0])
}

func pickClassification(outputs []pipelines.ClassificationOutput) (models.Classification, error) {
	result := models.Classification{Scores: make(map[models.SentimentLabel]float64, len(outputs))}
	found := false
	for _, out := range outputs {
		label, err := models.ParseLabel(out.Label)
		if err != nil {
			slog.Warn("[HugotPredictor] Ignoring unknown model label", slog.String("label", out.Label))
			continue
		}
		score := float64(out.Score)
		result.Scores[label] = score
		if !found || score > result.Confidence {
			result.Label = label
			result.Confidence = score
			found = true
		}
	}
	if !found {
		return models.Classification{}, fmt.Errorf("pipeline labels do not match sentiment codes")
	}
	return result, nil
}

func (h *HugotPredictor) Close() error {
	return h.session.Destroy()
}
