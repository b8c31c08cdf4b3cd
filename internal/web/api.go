package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/spacesedan/tweetclassifier/internal/models"
	"github.com/spacesedan/tweetclassifier/internal/utils/httputils"
)

const (
	MAX_BATCH_TEXTS       = 100
	DEFAULT_HISTORY_LIMIT = 20
	MAX_HISTORY_LIMIT     = 500
)

type normalizeRequest struct {
	Text string `json:"text"`
}

type normalizeResponse struct {
	Text       string `json:"text"`
	Normalized string `json:"normalized"`
}

type predictRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Tweet string `json:"tweet"`
}

type batchRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type batchItem struct {
	Result *models.PredictionResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

type batchResponse struct {
	Model   string      `json:"model"`
	Results []batchItem `json:"results"`
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *Handler) HandleModelHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputils.JSONError(w, http.StatusNotFound, "model health monitoring is not enabled")
		return
	}
	httputils.JSONResponse(w, http.StatusOK, h.health.Status())
}

func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	httputils.JSONResponse(w, http.StatusOK, h.service.Models())
}

func (h *Handler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.HandleError(w, err)
		return
	}
	httputils.JSONResponse(w, http.StatusOK, normalizeResponse{
		Text:       req.Text,
		Normalized: h.service.Normalize(req.Text),
	})
}

func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		httputils.JSONError(w, http.StatusBadRequest, "model is required")
		return
	}

	var (
		result models.PredictionResult
		err    error
	)
	if strings.TrimSpace(req.Tweet) != "" {
		result, err = h.service.FetchAndClassify(r.Context(), req.Model, req.Tweet)
	} else {
		result, err = h.service.Classify(r.Context(), req.Model, req.Text)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputils.JSONResponse(w, http.StatusOK, result)
}

func (h *Handler) HandlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.HandleError(w, err)
		return
	}
	switch {
	case strings.TrimSpace(req.Model) == "":
		httputils.JSONError(w, http.StatusBadRequest, "model is required")
		return
	case len(req.Texts) == 0:
		httputils.JSONError(w, http.StatusBadRequest, "texts is required")
		return
	case len(req.Texts) > MAX_BATCH_TEXTS:
		httputils.JSONError(w, http.StatusRequestEntityTooLarge,
			"at most "+strconv.Itoa(MAX_BATCH_TEXTS)+" texts per batch")
		return
	}

	results, errs := h.service.ClassifyBatch(r.Context(), req.Model, req.Texts)
	resp := batchResponse{Model: req.Model, Results: make([]batchItem, len(results))}
	for i := range results {
		if errs[i] != nil {
			_, message := statusFor(errs[i])
			resp.Results[i].Error = message
			continue
		}
		result := results[i]
		resp.Results[i].Result = &result
	}
	httputils.JSONResponse(w, http.StatusOK, resp)
}

func (h *Handler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := DEFAULT_HISTORY_LIMIT
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputils.JSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MAX_HISTORY_LIMIT)
	}

	results, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []models.PredictionResult{}
	}
	httputils.JSONResponse(w, http.StatusOK, results)
}
