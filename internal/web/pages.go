package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

type predictPage struct {
	Title       string
	Models      []models.ModelInfo
	Selected    string
	Text        string
	Tweet       string
	TweetLookup bool
	Error       string
	Result      *models.PredictionResult
}

type dataPage struct {
	Title  string
	Labels []models.SentimentLabel
	Label  string
	Rows   []models.TweetRecord
	Total  int
	Page   int
	Pages  int
	Prev   int
	Next   int
}

type aboutPage struct {
	Title  string
	Body   any
	Labels []models.SentimentLabel
}

func (h *Handler) newPredictPage() predictPage {
	page := predictPage{
		Title:       "Prediction",
		Models:      h.service.Models(),
		Text:        DEFAULT_TEXT,
		TweetLookup: h.service.TweetLookupEnabled(),
	}
	for _, m := range page.Models {
		if m.Available {
			page.Selected = m.ID
			break
		}
	}
	return page
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/predict", http.StatusFound)
}

func (h *Handler) HandlePredictForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "predict", h.newPredictPage())
}

func (h *Handler) HandlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	page := h.newPredictPage()
	if err := r.ParseForm(); err != nil {
		page.Error = "could not read the form"
		h.render(w, http.StatusBadRequest, "predict", page)
		return
	}

	page.Selected = strings.TrimSpace(r.PostFormValue("model"))
	page.Text = r.PostFormValue("text")
	page.Tweet = strings.TrimSpace(r.PostFormValue("tweet"))

	if page.Selected == "" {
		page.Error = "choose a model"
		h.render(w, http.StatusBadRequest, "predict", page)
		return
	}

	var (
		result models.PredictionResult
		err    error
	)
	if page.Tweet != "" {
		result, err = h.service.FetchAndClassify(r.Context(), page.Selected, page.Tweet)
	} else {
		result, err = h.service.Classify(r.Context(), page.Selected, page.Text)
	}
	if err != nil {
		status, message := statusFor(err)
		page.Error = message
		h.render(w, status, "predict", page)
		return
	}

	page.Result = &result
	h.render(w, http.StatusOK, "predict", page)
}

func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		http.Error(w, "training data is not loaded", http.StatusNotFound)
		return
	}
	page, err := h.insightsPage()
	if err != nil {
		http.Error(w, "could not render insights", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Handler) HandleData(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		http.Error(w, "training data is not loaded", http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	var filter *models.SentimentLabel
	labelName := strings.TrimSpace(query.Get("label"))
	if labelName != "" {
		label, err := models.ParseLabel(labelName)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter = &label
		labelName = label.Name()
	}

	pageNum := 1
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		pageNum = n
	}

	pages := (h.data.Count(filter) + h.pageSize - 1) / h.pageSize
	if pages == 0 {
		pages = 1
	}
	// Past the end shows the last page; also keeps the offset from overflowing.
	if pageNum > pages {
		pageNum = pages
	}
	rows, total := h.data.Page(filter, (pageNum-1)*h.pageSize, h.pageSize)

	h.render(w, http.StatusOK, "data", dataPage{
		Title:  "Raw data",
		Labels: models.AllLabels(),
		Label:  labelName,
		Rows:   rows,
		Total:  total,
		Page:   pageNum,
		Pages:  pages,
		Prev:   pageNum - 1,
		Next:   pageNum + 1,
	})
}

func (h *Handler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "about", aboutPage{
		Title:  "Information",
		Body:   h.about,
		Labels: models.AllLabels(),
	})
}
