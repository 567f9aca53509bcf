package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/metrics"
)

// NewRouter mounts the server routes behind the standard middleware stack.
func NewRouter(s *Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware("/metrics"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Post("/recommend", s.Recommend)
	r.Post("/recommend/text", s.RecommendText)
	r.Get("/users/{id}/recommendations", s.RecommendForUser)

	r.Post("/refresh", s.RefreshAll)
	r.Post("/posts/{id}/refresh", s.RefreshPost)
	r.Post("/users/{id}/refresh", s.RefreshUser)

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
