package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Get("/metrics", app.MetricsHandler)

	r.Post("/detect", app.DetectHandler)
	r.Get("/datasets", app.DatasetsHandler)
	r.Get("/history", app.HistoryHandler)

	r.Get("/uploads/{name}", app.GetUploadHandler)
	r.Delete("/uploads/{name}", app.DeleteUploadHandler)

	return r
}
