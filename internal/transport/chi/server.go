// Package chi is the HTTP surface: JSON endpoints for memory, search,
// grounded answering and verification, plus the NDJSON streaming endpoint.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
	chatuc "github.com/promethia-ai/promethia/internal/usecase/chat"
	healthuc "github.com/promethia-ai/promethia/internal/usecase/health"
	memoryuc "github.com/promethia-ai/promethia/internal/usecase/memory"
	searchuc "github.com/promethia-ai/promethia/internal/usecase/search"
)

const (
	defaultNamespace   = "default"
	searchEndpointSize = 8
)

// Error codes in API responses.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeModerationBlocked = "moderation_blocked"
	codeRateLimited       = "rate_limited"
	codeUpstreamError     = "upstream_error"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server carries the use case services behind the HTTP handlers.
type Server struct {
	chat          *chatuc.Service
	memories      *memoryuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	memories *memoryuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:     chat,
		memories: memories,
		search:   search,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyPrompt, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyText, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyClaim, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrModerationBlocked, http.StatusForbidden, codeModerationBlocked),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrSearchProviderError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/memory", s.handleStoreMemory)
		r.Get("/memory/query", s.handleQueryMemory)
		r.Get("/memories", s.handleListMemories)
		r.Get("/search", s.handleSearch)
		r.Post("/prompt", s.handlePrompt)
		r.Post("/verify", s.handleVerify)
		r.Get("/stream-prompt", s.handleStreamPrompt)
	})
}

type memoryItem struct {
	ID        int64   `json:"id"`
	Namespace string  `json:"namespace"`
	Text      string  `json:"text"`
	Score     float64 `json:"score,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// handleStoreMemory handles POST /v1/memory.
func (s *Server) handleStoreMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace string `json:"namespace"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Namespace == "" {
		req.Namespace = defaultNamespace
	}

	id, err := s.memories.Store(r.Context(), req.Namespace, req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleQueryMemory handles GET /v1/memory/query.
func (s *Server) handleQueryMemory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	topK := queryInt(r, "k", 0)

	matches, err := s.memories.Query(r.Context(), q, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]memoryItem, len(matches))
	for i, m := range matches {
		items[i] = memoryItem{
			ID:        m.ID,
			Namespace: m.Namespace,
			Text:      m.Text,
			Score:     m.Score,
			CreatedAt: m.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// handleListMemories handles GET /v1/memories.
func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	records, err := s.memories.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]memoryItem, len(records))
	for i, m := range records {
		items[i] = memoryItem{
			ID:        m.ID,
			Namespace: m.Namespace,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"memories": items,
		"count":    len(items),
	})
}

// handleSearch handles GET /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("query")
	}

	results, err := s.search.Search(r.Context(), q, searchEndpointSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": results,
	})
}

// handlePrompt handles POST /v1/prompt.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	text, sources, err := s.chat.Answer(r.Context(), req.Prompt, req.Model)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":    text,
		"sources": sources,
	})
}

// handleVerify handles POST /v1/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Claim   string   `json:"claim"`
		Queries []string `json:"queries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	verdict, evidence, err := s.chat.Verify(r.Context(), req.Claim, req.Queries)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":   verdict,
		"evidence": evidence,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals. Moderation blocks keep their reason detail.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrModerationBlocked) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmptyPrompt,
		domain.ErrEmptyQuery,
		domain.ErrEmptyText,
		domain.ErrEmptyClaim,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrSearchProviderError,
		domain.ErrModelProviderError,
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

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
