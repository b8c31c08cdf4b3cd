package web

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.HandleFunc("GET /{$}", handler.HandleIndex)
	mux.HandleFunc("GET /predict", handler.HandlePredictForm)
	mux.HandleFunc("POST /predict", handler.HandlePredictSubmit)
	mux.HandleFunc("GET /insights", handler.HandleInsights)
	mux.HandleFunc("GET /data", handler.HandleData)
	mux.HandleFunc("GET /about", handler.HandleAbout)

	mux.HandleFunc("GET /api/health", handler.HandleModelHealth)
	mux.HandleFunc("GET /api/models", handler.HandleModels)
	mux.HandleFunc("POST /api/normalize", handler.HandleNormalize)
	mux.HandleFunc("POST /api/predict", handler.HandlePredict)
	mux.HandleFunc("POST /api/predict/batch", handler.HandlePredictBatch)
	mux.HandleFunc("GET /api/predictions", handler.HandlePredictions)
}
