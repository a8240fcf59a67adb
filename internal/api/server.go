// Package api exposes the orchestration engine over HTTP (spec §4.6/§6): a
// thin adapter whose only logic is bearer-token authentication and the
// conversion of domain errors into HTTP status codes.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"reach/workflowd/internal/engine"
)

type ctxKey string

const callerKey ctxKey = "caller"

// Server adapts engine.Engine to net/http.
type Server struct {
	engine *engine.Engine
	log    *zap.Logger
}

func NewServer(eng *engine.Engine, log *zap.Logger) *Server {
	return &Server{engine: eng, log: log}
}

// Handler builds the full routing table, grounded on the Go 1.22+
// method+path ServeMux pattern style.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.Handle("POST /api/v1/sessions", s.requireAuth(http.HandlerFunc(s.handleCreateSession)))
	mux.Handle("GET /api/v1/sessions/{id}", s.requireAuth(http.HandlerFunc(s.handleGetSession)))
	mux.Handle("POST /api/v1/sessions/{id}/plans/import", s.requireAuth(http.HandlerFunc(s.handleImportPlan)))
	mux.Handle("GET /api/v1/sessions/{id}/plans/{v}", s.requireAuth(http.HandlerFunc(s.handleGetPlan)))
	mux.Handle("POST /api/v1/sessions/{id}/plans/{v}/approve", s.requireAuth(http.HandlerFunc(s.handleApprovePlan)))
	mux.Handle("POST /api/v1/sessions/{id}/steps/{sid}/approve", s.requireAuth(http.HandlerFunc(s.handleApproveStep)))
	mux.Handle("POST /api/v1/sessions/{id}/steps/{sid}/execute", s.requireAuth(http.HandlerFunc(s.handleExecuteStep)))
	mux.Handle("POST /api/v1/sessions/{id}/stop", s.requireAuth(http.HandlerFunc(s.handleStopSession)))
	mux.Handle("GET /api/v1/sessions/{id}/events/search", s.requireAuth(http.HandlerFunc(s.handleSearchEvents)))
	mux.Handle("GET /api/v1/sessions/{id}/artifacts", s.requireAuth(http.HandlerFunc(s.handleListArtifacts)))
	mux.Handle("GET /api/v1/tools", s.requireAuth(http.HandlerFunc(s.handleListTools)))
	mux.Handle("GET /api/v1/tools/{name}/permissions", s.requireAuth(http.HandlerFunc(s.handleToolPermissions)))

	return s.withAccessLog(mux)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

// requireAuth enforces the "Authorization: Bearer <token>" requirement from
// spec §6. Any non-empty token passes; caller identity travels through the
// domain via approved_by/source, not this header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "authorization header with bearer token is required")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
