package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/tweetclassifier/internal/charts"
	"github.com/spacesedan/tweetclassifier/internal/classifier"
	"github.com/spacesedan/tweetclassifier/internal/clients"
	"github.com/spacesedan/tweetclassifier/internal/dataset"
	"github.com/spacesedan/tweetclassifier/internal/models"
	"github.com/spacesedan/tweetclassifier/internal/prediction"
	"github.com/spacesedan/tweetclassifier/internal/utils/httputils"
)

//go:embed templates
var templateFS embed.FS

const (
	DEFAULT_PAGE_SIZE  = 50
	DEFAULT_TEXT       = "Type Here"
	INSIGHTS_TOP_WORDS = 15
)

type PredictionService interface {
	Normalize(raw string) string
	Models() []models.ModelInfo
	Classify(ctx context.Context, modelID, raw string) (models.PredictionResult, error)
	ClassifyBatch(ctx context.Context, modelID string, texts []string) ([]models.PredictionResult, []error)
	FetchAndClassify(ctx context.Context, modelID, ref string) (models.PredictionResult, error)
	Recent(ctx context.Context, limit int) ([]models.PredictionResult, error)
	TweetLookupEnabled() bool
}

type HealthReporter interface {
	Status() map[string]bool
}

type Handler struct {
	service  PredictionService
	data     *dataset.Dataset
	health   HealthReporter
	pageSize int
	pages    map[string]*template.Template
	about    template.HTML

	insightsOnce sync.Once
	insights     []byte
	insightsErr  error
}

// NewHandler wires the pages and API. data and health may be nil; the pages
// that need them answer 404.
func NewHandler(service PredictionService, data *dataset.Dataset, health HealthReporter, pageSize int) (*Handler, error) {
	if pageSize <= 0 {
		pageSize = DEFAULT_PAGE_SIZE
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"predict", "data", "about"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	markdown, err := templateFS.ReadFile("templates/about.md")
	if err != nil {
		return nil, fmt.Errorf("read about page: %w", err)
	}

	return &Handler{
		service:  service,
		data:     data,
		health:   health,
		pageSize: pageSize,
		pages:    pages,
		about:    template.HTML(blackfriday.Run(markdown)),
	}, nil
}

// render buffers the page so a template error still yields a clean 500.
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("[WebHandler] Failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) insightsPage() ([]byte, error) {
	h.insightsOnce.Do(func() {
		var buf bytes.Buffer
		summary := charts.Summarize(h.data, h.service.Normalize, INSIGHTS_TOP_WORDS)
		if err := charts.RenderInsights(&buf, summary); err != nil {
			h.insightsErr = err
			return
		}
		h.insights = buf.Bytes()
	})
	return h.insights, h.insightsErr
}

// statusFor maps service errors onto HTTP status codes and user messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, prediction.ErrEmptyText):
		return http.StatusBadRequest, "text or tweet is required"
	case errors.Is(err, classifier.ErrUnknownModel):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, clients.ErrInvalidTweetID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, clients.ErrTweetNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, prediction.ErrTweetLookupAbsent), errors.Is(err, prediction.ErrHistoryDisabled):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "classification timed out"
	default:
		return http.StatusInternalServerError, "classification failed"
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("[WebHandler] Request failed",
			slog.String("reqid", RequestID(r.Context())),
			slog.String("error", err.Error()))
	}
	httputils.HandleError(w, httputils.NewHTTPError(status, message))
}
