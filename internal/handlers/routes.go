package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thisdougb/techtrends/internal/metrics"
)

// NewRouter registers the blog routes. Every matched route, and the 404
// fallback, is instrumented for Prometheus.
func NewRouter(repo PostRepository, pages Renderer) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/", IndexHandler(repo, pages)).Methods(http.MethodGet)
	r.HandleFunc("/{post_id:[0-9]+}", PostHandler(repo, pages)).Methods(http.MethodGet)
	r.HandleFunc("/about", AboutHandler(pages)).Methods(http.MethodGet)
	r.HandleFunc("/create", CreateHandler(repo, pages)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/healthz", HealthzHandler(repo)).Methods(http.MethodGet)
	r.HandleFunc("/metrics", MetricsHandler(repo)).Methods(http.MethodGet)

	r.NotFoundHandler = metrics.Middleware(NotFoundHandler(pages))

	return r
}
