package router

import (
	"net/http"

	"print-packager/internal/http-server/handler/batch"
	"print-packager/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BatchHandler   *batch.BatchHandler
	PreviewHandler *batch.PreviewHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", h.BatchHandler.CreateBatch)
			r.Get("/", h.BatchHandler.ListBatches)
			r.Get("/{id}", h.BatchHandler.GetBatch)
			r.Delete("/{id}", h.BatchHandler.DeleteBatch)
			r.Get("/{id}/progress/ws", h.BatchHandler.StreamProgress)
			r.Get("/{id}/images", h.BatchHandler.ListImages)
			r.Get("/{id}/images/{imageID}", h.BatchHandler.GetImage)
			r.Get("/{id}/summary", h.BatchHandler.BatchSummary)
		})

		r.Get("/catalog", h.BatchHandler.Summary)
		r.Post("/preview", h.PreviewHandler.Preview)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
