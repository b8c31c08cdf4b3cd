package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// sklearn's default token_pattern.
var vectorizerTokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// Vectorizer reproduces a fitted scikit-learn TfidfVectorizer (or
// CountVectorizer when IDF is empty) exported to JSON.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`
	Binary      bool           `json:"binary"`
	Lowercase   bool           `json:"lowercase"`
	Norm        string         `json:"norm"`
}

func LoadVectorizer(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}
	var v Vectorizer
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vectorizer %s: %w", path, err)
	}
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("vectorizer %s: %w", path, err)
	}
	return &v, nil
}

func (v *Vectorizer) validate() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	dim := len(v.Vocabulary)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= dim {
			return fmt.Errorf("term %q has index %d outside [0,%d)", term, idx, dim)
		}
	}
	if len(v.IDF) != 0 && len(v.IDF) != dim {
		return fmt.Errorf("idf has %d weights for %d terms", len(v.IDF), dim)
	}
	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram_range %v", v.NgramRange)
	}
	switch v.Norm {
	case "", "l1", "l2", "none":
	default:
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}
	return nil
}

func (v *Vectorizer) Dim() int {
	return len(v.Vocabulary)
}

// Transform returns the dense feature vector for text. Out of vocabulary
// n-grams are ignored, so empty text yields the zero vector.
func (v *Vectorizer) Transform(text string) *mat.VecDense {
	features := make([]float64, v.Dim())

	for _, term := range v.analyze(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			features[idx]++
		}
	}

	for i, tf := range features {
		if tf == 0 {
			continue
		}
		switch {
		case v.Binary:
			tf = 1
		case v.SublinearTF:
			tf = 1 + math.Log(tf)
		}
		if len(v.IDF) > 0 {
			tf *= v.IDF[i]
		}
		features[i] = tf
	}

	switch v.Norm {
	case "l2":
		if n := floats.Norm(features, 2); n > 0 {
			floats.Scale(1/n, features)
		}
	case "l1":
		if n := floats.Norm(features, 1); n > 0 {
			floats.Scale(1/n, features)
		}
	}

	return mat.NewVecDense(len(features), features)
}

func (v *Vectorizer) analyze(text string) []string {
	if v.Lowercase {
		text = strings.ToLower(text)
	}
	tokens := vectorizerTokenPattern.FindAllString(text, -1)

	var terms []string
	for n := v.NgramRange[0]; n <= v.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
