package router

import (
	"net/http"

	"image-labeler/internal/http-server/handler/job"
	"image-labeler/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	JobHandler *job.JobHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.JobHandler.StartJob)
			r.Get("/{id}", h.JobHandler.GetJob)
			r.Get("/{id}/preview", h.JobHandler.GetPreview)
			r.Get("/{id}/files/{name}", h.JobHandler.GetFile)
			r.Delete("/{id}", h.JobHandler.CancelJob)
		})

		r.Post("/preview", h.JobHandler.RenderPreview)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
