package preprocessing

import (
	"github.com/jdkato/prose/tag"
)

// PerceptronTagger wraps prose's averaged perceptron model. The model weights
// are decoded once in NewPerceptronTagger and only read afterwards.
type PerceptronTagger struct {
	tagger *tag.PerceptronTagger
}

func NewPerceptronTagger() *PerceptronTagger {
	return &PerceptronTagger{tagger: tag.NewPerceptronTagger()}
}

func (p *PerceptronTagger) Tag(tokens []string) []TaggedToken {
	if len(tokens) == 0 {
		return nil
	}
	tagged := p.tagger.Tag(tokens)
	out := make([]TaggedToken, len(tagged))
	for i, t := range tagged {
		out[i] = TaggedToken{Text: t.Text, Tag: t.Tag}
	}
	return out
}
