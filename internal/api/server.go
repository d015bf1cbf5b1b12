// Package api exposes the review engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/evaluation"
	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/normalize"
	"github.com/sells-group/grant-review/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators shared by every request.
type Deps struct {
	// AnalysisGen answers perspective prompts. SynthesisGen, VoteGen and
	// PerspectiveGen default to AnalysisGen when nil.
	AnalysisGen    llm.Generator
	SynthesisGen   llm.Generator
	VoteGen        llm.Generator
	PerspectiveGen llm.Generator

	Parser normalize.Parser
	Engine *evaluation.Engine
	Store  store.Store

	DefaultPerspectives []model.Perspective
	VoteOptions         []string
	AnalysisConcurrency int
	GeneratorCount      int
	CORSOrigins         []string
}

// Server routes HTTP requests to the engine.
type Server struct {
	deps   Deps
	router chi.Router
}

// NewServer builds the router.
func NewServer(deps Deps) *Server {
	if deps.SynthesisGen == nil {
		deps.SynthesisGen = deps.AnalysisGen
	}
	if deps.VoteGen == nil {
		deps.VoteGen = deps.AnalysisGen
	}
	if deps.PerspectiveGen == nil {
		deps.PerspectiveGen = deps.AnalysisGen
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}

	s := &Server{deps: deps, router: chi.NewRouter()}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/perspectives", s.handleListPerspectives)
		r.Post("/perspectives/generate", s.handleGeneratePerspectives)
		r.Post("/analyze", s.handleAnalyze)

		r.Post("/evaluations", s.handleEvaluate)
		r.Post("/evaluations/batch", s.handleEvaluateBatch)
		r.Get("/evaluations/{formID}/{userID}", s.handleLatestEvaluation)
	})
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
