package classifier

import (
	"context"
	"math"
	"regexp"

	"github.com/jonreiter/govader"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

const vaderThreshold = 0.20

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// VaderPredictor maps VADER's compound polarity onto the stance labels:
// positive tweets count as Pro, negative as Anti. It never predicts News.
type VaderPredictor struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderPredictor() *VaderPredictor {
	return &VaderPredictor{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Predict scores the raw text; VADER relies on casing, punctuation and emoji
// that normalization removes.
func (v *VaderPredictor) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	if err := ctx.Err(); err != nil {
		return models.Classification{}, err
	}

	sentiment := v.analyzer.PolarityScores(RemoveLinks(in.Raw))
	score := sentiment.Compound

	result := models.Classification{
		Scores: map[models.SentimentLabel]float64{
			models.LabelPro:     sentiment.Positive,
			models.LabelNeutral: sentiment.Neutral,
			models.LabelAnti:    sentiment.Negative,
		},
	}

	switch {
	case score >= vaderThreshold:
		result.Label = models.LabelPro
		result.Confidence = score
	case score <= -vaderThreshold:
		result.Label = models.LabelAnti
		result.Confidence = -score
	default:
		result.Label = models.LabelNeutral
		result.Confidence = 1 - math.Abs(score)
	}

	return result, nil
}
