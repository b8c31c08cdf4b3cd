package classifier

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testVectorizer() *Vectorizer {
	v := &Vectorizer{
		Vocabulary: map[string]int{"climate": 0, "hoax": 1, "real": 2, "report": 3},
		IDF:        []float64{1, 2, 1, 1},
		Lowercase:  true,
		Norm:       "l2",
	}
	if err := v.validate(); err != nil {
		panic(err)
	}
	return v
}

func TestVectorizerTransform(t *testing.T) {
	v := testVectorizer()

	x := v.Transform("Climate hoax hoax unknown")
	// counts {climate:1, hoax:2} weighted by idf {1,2} -> {1,4}, l2 norm sqrt(17)
	n := math.Sqrt(17)
	want := []float64{1 / n, 4 / n, 0, 0}
	for i, w := range want {
		if got := x.AtVec(i); math.Abs(got-w) > 1e-9 {
			t.Errorf("feature %d = %v, want %v", i, got, w)
		}
	}

	empty := v.Transform("")
	for i := 0; i < empty.Len(); i++ {
		if empty.AtVec(i) != 0 {
			t.Fatalf("empty text produced non-zero feature %d", i)
		}
	}
}

func TestVectorizerBigrams(t *testing.T) {
	v := &Vectorizer{
		Vocabulary: map[string]int{"climate": 0, "climate change": 1, "change": 2},
		NgramRange: [2]int{1, 2},
		Norm:       "none",
	}
	if err := v.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	x := v.Transform("climate change")
	for i := 0; i < 3; i++ {
		if x.AtVec(i) != 1 {
			t.Errorf("feature %d = %v, want 1", i, x.AtVec(i))
		}
	}
}

func TestVectorizerValidate(t *testing.T) {
	tests := []struct {
		name string
		v    Vectorizer
	}{
		{"empty vocabulary", Vectorizer{}},
		{"index out of range", Vectorizer{Vocabulary: map[string]int{"a": 3}}},
		{"idf length", Vectorizer{Vocabulary: map[string]int{"a": 0}, IDF: []float64{1, 2}}},
		{"bad norm", Vectorizer{Vocabulary: map[string]int{"a": 0}, Norm: "max"}},
		{"bad ngram", Vectorizer{Vocabulary: map[string]int{"a": 0}, NgramRange: [2]int{2, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.v.validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLinearModelClassify(t *testing.T) {
	m := &LinearModel{
		Name:    "test",
		Classes: []int{-1, 0, 1, 2},
		Coef: [][]float64{
			{0, 3, 0, 0},
			{0, 0, 0, 0},
			{1, 0, 2, 0},
			{0, 0, 0, 3},
		},
		Intercept: []float64{0, 0.1, 0, 0},
	}
	if err := m.init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	v := testVectorizer()
	got := m.Classify(v.Transform("climate change is real"))
	if got.Label != models.LabelPro {
		t.Fatalf("label = %v, want Pro", got.Label)
	}

	var sum float64
	for _, p := range got.Scores {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	if got.Confidence != got.Scores[models.LabelPro] {
		t.Fatalf("confidence %v does not match Pro probability %v", got.Confidence, got.Scores[models.LabelPro])
	}

	if got := m.Classify(v.Transform("hoax")); got.Label != models.LabelAnti {
		t.Fatalf("hoax label = %v, want Anti", got.Label)
	}
}

func TestLinearModelBinary(t *testing.T) {
	m := &LinearModel{
		Classes:   []int{-1, 1},
		Coef:      [][]float64{{-1, -2, 1, 0}},
		Intercept: []float64{0},
	}
	if err := m.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	v := testVectorizer()
	if got := m.Classify(v.Transform("real")); got.Label != models.LabelPro {
		t.Errorf("real label = %v, want Pro", got.Label)
	}
	if got := m.Classify(v.Transform("hoax")); got.Label != models.LabelAnti {
		t.Errorf("hoax label = %v, want Anti", got.Label)
	}
}

func TestLinearModelInitErrors(t *testing.T) {
	tests := []struct {
		name string
		m    LinearModel
	}{
		{"one class", LinearModel{Classes: []int{1}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		{"unknown class", LinearModel{Classes: []int{1, 7}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{0, 0}}},
		{"row mismatch", LinearModel{Classes: []int{-1, 0, 1}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{0, 0}}},
		{"ragged", LinearModel{Classes: []int{-1, 1}, Coef: [][]float64{{1, 2}, {1}}, Intercept: []float64{0, 0}}},
		{"bad kind", LinearModel{Kind: "tree", Classes: []int{-1, 1}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.init(); err == nil {
				t.Fatal("expected init error")
			}
		})
	}
}

func TestArtifactPredictorDimensionMismatch(t *testing.T) {
	m := &LinearModel{Classes: []int{-1, 1}, Coef: [][]float64{{1, 2}}, Intercept: []float64{0}}
	if err := m.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := NewArtifactPredictor(testVectorizer(), m); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestRegisterArtifactModels(t *testing.T) {
	dir := t.TempDir()
	vecPath := writeJSON(t, dir, "tfidfvect.json", map[string]any{
		"vocabulary": map[string]int{"climate": 0, "hoax": 1, "real": 2, "report": 3},
		"idf":        []float64{1, 2, 1, 1},
		"lowercase":  true,
		"norm":       "l2",
	})
	writeJSON(t, dir, "logistic_regression.json", map[string]any{
		"name":      "logistic_regression",
		"classes":   []int{-1, 0, 1, 2},
		"coef":      [][]float64{{0, 3, 0, 0}, {0, 0, 0, 0}, {1, 0, 2, 0}, {0, 0, 0, 3}},
		"intercept": []float64{0, 0.1, 0, 0},
	})

	reg := NewRegistry()
	RegisterArtifactModels(reg, dir, vecPath)

	available := map[string]bool{}
	for _, info := range reg.List() {
		available[info.ID] = info.Available
	}
	if !available["logistic_regression"] {
		t.Fatal("logistic_regression should be available")
	}
	if available["linear_svc"] {
		t.Fatal("linear_svc has no artifact and should be unavailable")
	}

	p, err := reg.Get(context.Background(), "logistic_regression")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := p.Predict(context.Background(), models.ClassificationInput{Normalized: "report report"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got.Label != models.LabelNews {
		t.Fatalf("label = %v, want News", got.Label)
	}
}
