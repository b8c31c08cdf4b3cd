package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

const (
	KindLinear     = "linear"
	KindNaiveBayes = "naive_bayes"
)

// LinearModel is an exported scikit-learn linear classifier. Logistic
// regression, LinearSVC and ridge export coef_/intercept_; multinomial naive
// Bayes exports feature_log_prob_/class_log_prior_ in the same fields. Both
// score as coef·x + intercept.
type LinearModel struct {
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`

	labels    []models.SentimentLabel
	coef      *mat.Dense
	intercept *mat.VecDense
}

func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

func (m *LinearModel) init() error {
	switch m.Kind {
	case "", KindLinear, KindNaiveBayes:
	default:
		return fmt.Errorf("unsupported kind %q", m.Kind)
	}
	if len(m.Classes) < 2 {
		return fmt.Errorf("need at least two classes, got %d", len(m.Classes))
	}

	m.labels = make([]models.SentimentLabel, len(m.Classes))
	for i, code := range m.Classes {
		l, err := models.LabelFromCode(code)
		if err != nil {
			return err
		}
		m.labels[i] = l
	}

	rows := len(m.Coef)
	binary := rows == 1 && len(m.Classes) == 2
	if rows != len(m.Classes) && !binary {
		return fmt.Errorf("coef has %d rows for %d classes", rows, len(m.Classes))
	}
	if len(m.Intercept) != rows {
		return fmt.Errorf("intercept has %d values for %d rows", len(m.Intercept), rows)
	}
	cols := len(m.Coef[0])
	if cols == 0 {
		return fmt.Errorf("coef has no features")
	}

	data := make([]float64, 0, rows*cols)
	for i, row := range m.Coef {
		if len(row) != cols {
			return fmt.Errorf("coef row %d has %d features, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	m.coef = mat.NewDense(rows, cols, data)
	m.intercept = mat.NewVecDense(rows, append([]float64(nil), m.Intercept...))
	return nil
}

func (m *LinearModel) Features() int {
	_, c := m.coef.Dims()
	return c
}

// Scores returns one decision value per class, in Classes order.
func (m *LinearModel) Scores(x mat.Vector) []float64 {
	var out mat.VecDense
	out.MulVec(m.coef, x)
	out.AddVec(&out, m.intercept)

	if out.Len() == 1 {
		return []float64{0, out.AtVec(0)}
	}
	scores := make([]float64, out.Len())
	for i := range scores {
		scores[i] = out.AtVec(i)
	}
	return scores
}

func (m *LinearModel) Classify(x mat.Vector) models.Classification {
	scores := m.Scores(x)
	probs := softmax(scores)
	best := floats.MaxIdx(probs)

	byLabel := make(map[models.SentimentLabel]float64, len(probs))
	for i, p := range probs {
		byLabel[m.labels[i]] = p
	}
	return models.Classification{
		Label:      m.labels[best],
		Confidence: probs[best],
		Scores:     byLabel,
	}
}

func softmax(scores []float64) []float64 {
	lse := floats.LogSumExp(scores)
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - lse)
	}
	return out
}

// ArtifactPredictor runs the fitted vectorizer and linear model on the
// normalized text, mirroring how the models were trained.
type ArtifactPredictor struct {
	vectorizer *Vectorizer
	model      *LinearModel
}

func NewArtifactPredictor(v *Vectorizer, m *LinearModel) (*ArtifactPredictor, error) {
	if v.Dim() != m.Features() {
		return nil, fmt.Errorf("vectorizer has %d features but model %q expects %d", v.Dim(), m.Name, m.Features())
	}
	return &ArtifactPredictor{vectorizer: v, model: m}, nil
}

func (p *ArtifactPredictor) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	if err := ctx.Err(); err != nil {
		return models.Classification{}, err
	}
	return p.model.Classify(p.vectorizer.Transform(in.Normalized)), nil
}
