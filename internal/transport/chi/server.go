package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/logger"
	healthuc "github.com/kailas-cloud/feedrank/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/feedrank/internal/usecase/recommend"
	refreshuc "github.com/kailas-cloud/feedrank/internal/usecase/refresh"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes recommendation and refresh over HTTP.
type Server struct {
	recommend     *recommenduc.Service
	refresh       *refreshuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	refresh *refreshuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		refresh:   refresh,
		health:    health,
		logger:    logger,
	}
	// Order matters: ErrProviderTimeout also matches ErrEmbeddingProviderError.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMalformedQuery, http.StatusBadRequest, codeMalformedQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrProviderTimeout, http.StatusBadGateway, codeProviderTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput),
	}
	return s
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeMalformedQuery, "Invalid request body: "+err.Error())
		return
	}

	m, err := mode.Parse(body.Mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	req, err := request.New(body.Embedding, s.recommend.Dimensions(), body.TopN, m)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.recommend.Recommend(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsFromResults(results))
}

// RecommendText handles POST /recommend/text.
func (s *Server) RecommendText(w http.ResponseWriter, r *http.Request) {
	var body RecommendTextRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, err := mode.Parse(body.Mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.recommend.RecommendText(r.Context(), body.Query, body.TopN, m)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsFromResults(results))
}

// RecommendForUser handles GET /users/{id}/recommendations.
func (s *Server) RecommendForUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topN := 0
	if raw := q.Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeMalformedQuery, "top_n must be a non-negative integer")
			return
		}
		topN = n
	}
	m, err := mode.Parse(q.Get("mode"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	r = r.WithContext(logger.WithFields(r.Context(), zap.String("user_id", id)))
	results, err := s.recommend.RecommendForUser(r.Context(), id, topN, m)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsFromResults(results))
}

// RefreshAll handles POST /refresh.
func (s *Server) RefreshAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.refresh.RefreshAll(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Summary: summary, DurationMS: summary.Duration.Milliseconds()})
}

// RefreshPost handles POST /posts/{id}/refresh.
func (s *Server) RefreshPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r = r.WithContext(logger.WithFields(r.Context(), zap.String("post_id", id)))
	if err := s.refresh.RefreshPost(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshUser handles POST /users/{id}/refresh.
func (s *Server) RefreshUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r = r.WithContext(logger.WithFields(r.Context(), zap.String("user_id", id)))
	if err := s.refresh.RefreshUser(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedQuery,
		domain.ErrNotFound,
		domain.ErrProviderTimeout,
		domain.ErrEmbeddingProviderError,
		domain.ErrInvalidInput,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
