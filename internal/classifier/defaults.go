package classifier

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/clients"
)

type artifactModel struct {
	id          string
	name        string
	description string
}

// Exported scikit-learn models expected under the model directory as <id>.json.
var artifactModels = []artifactModel{
	{"logistic_regression", "Logistic Regression", "TF-IDF features with a multinomial logistic regression"},
	{"linear_svc", "Linear SVC", "TF-IDF features with a linear support vector classifier"},
	{"naive_bayes", "Multinomial Naive Bayes", "TF-IDF features with multinomial naive Bayes"},
	{"ridge", "Ridge Classifier", "TF-IDF features with a ridge classifier"},
}

// NewDefaultRegistry registers every model this build knows about. Models
// whose artifacts or credentials are missing stay listed but unavailable.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	reg := NewRegistry()
	RegisterArtifactModels(reg, cfg.Models.Dir, cfg.Models.VectorizerPath)

	reg.Register(Entry{
		ID:          "vader",
		Name:        "VADER",
		Description: "Lexicon polarity (positive as Pro, negative as Anti); never predicts News",
		Available:   true,
		Load: func(context.Context) (Predictor, error) {
			return NewVaderPredictor(), nil
		},
	})

	hugotPath := cfg.Models.HugotModelPath
	reg.Register(Entry{
		ID:          "transformer",
		Name:        "Fine-tuned transformer",
		Description: "ONNX text classification model run in-process",
		Available:   hugotPath != "" && fileExists(hugotPath),
		Load: func(context.Context) (Predictor, error) {
			return NewHugotPredictor(hugotPath)
		},
	})

	remote := cfg.Models
	timeout := cfg.App.HTTPTimeout
	reg.Register(Entry{
		ID:          "remote",
		Name:        "Hosted model",
		Description: "Classification endpoint hosted on Hugging Face",
		Available:   remote.RemoteEndpoint != "",
		Load: func(context.Context) (Predictor, error) {
			client := clients.NewHuggingFaceClient(remote.RemoteEndpoint, remote.RemoteHealth, timeout)
			return NewRemotePredictor(client), nil
		},
	})

	reg.Register(Entry{
		ID:          "openai",
		Name:        "OpenAI zero-shot",
		Description: "Chat model prompted with the label definitions",
		Available:   remote.OpenAIKey != "",
		Load: func(context.Context) (Predictor, error) {
			client, err := clients.NewOpenAIClient(remote.OpenAIKey, remote.OpenAIModel)
			if err != nil {
				return nil, err
			}
			return NewLLMPredictor(client), nil
		},
	})

	return reg
}

// RegisterArtifactModels registers the scikit-learn exports. The vectorizer is
// read once and shared by all of them.
func RegisterArtifactModels(reg *Registry, dir, vectorizerPath string) {
	var (
		mu     sync.Mutex
		shared *Vectorizer
	)
	loadVectorizer := func() (*Vectorizer, error) {
		mu.Lock()
		defer mu.Unlock()
		if shared != nil {
			return shared, nil
		}
		vec, err := LoadVectorizer(vectorizerPath)
		if err != nil {
			return nil, err
		}
		shared = vec
		return shared, nil
	}

	for _, m := range artifactModels {
		path := filepath.Join(dir, m.id+".json")
		reg.Register(Entry{
			ID:          m.id,
			Name:        m.name,
			Description: m.description,
			Available:   fileExists(path) && fileExists(vectorizerPath),
			Load: func(context.Context) (Predictor, error) {
				vec, err := loadVectorizer()
				if err != nil {
					return nil, err
				}
				model, err := LoadLinearModel(path)
				if err != nil {
					return nil, err
				}
				return NewArtifactPredictor(vec, model)
			},
		})
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
