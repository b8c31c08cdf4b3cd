package preprocessing

import (
	"log/slog"
	"time"
)

type Settings struct {
	StopwordsFile   string
	DropShortTokens bool
}

// NewDefaultNormalizer builds a Normalizer over the bundled English models:
// perceptron tagger, golem dictionary, NLTK stopwords, x/text folding.
// Loading takes a moment, so callers build one at startup and share it.
func NewDefaultNormalizer(settings Settings) (*Normalizer, error) {
	start := time.Now()

	filter := NewEnglishStopwordFilter()
	if settings.StopwordsFile != "" {
		custom, err := LoadStopwordFilter(settings.StopwordsFile)
		if err != nil {
			return nil, err
		}
		filter = custom
	}

	lemmatizer, err := NewEnglishLemmatizer()
	if err != nil {
		return nil, err
	}

	n := NewNormalizer(NewPerceptronTagger(), lemmatizer, filter, ASCIIFolder{}, Options{
		DropShortTokens: settings.DropShortTokens,
	})

	slog.Info("[Normalizer] Language resources loaded",
		slog.Int("stopwords", filter.Len()),
		slog.Bool("drop_short_tokens", settings.DropShortTokens),
		slog.Duration("elapsed", time.Since(start)))

	return n, nil
}
