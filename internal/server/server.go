// Package server exposes the suggestion, feedback, and voice-parsing
// pipeline over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yhlin/ledgersense/internal/learning"
	"github.com/yhlin/ledgersense/internal/model"
)

// Suggester produces ranked category suggestions for a record.
type Suggester interface {
	Suggest(ctx context.Context, rec model.Record, userID string, maxSuggestions int) (model.CategorySuggestions, error)
}

// Learner records feedback and serves the learning reports.
type Learner interface {
	RecordFeedback(ctx context.Context, fb model.CategoryFeedback) error
	GenerateRules(ctx context.Context) (*learning.GenerateReport, error)
	EvaluateAccuracy(ctx context.Context) (*model.ModelAccuracyReport, error)
	Statistics(ctx context.Context) (*model.TrainingStatistics, error)
}

// TranscriptParser turns a voice transcript into a structured record.
type TranscriptParser interface {
	Parse(text string, context model.VoiceContext) model.VoiceParseResult
}

// Config holds HTTP server configuration.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server wraps the HTTP server and its handlers.
type Server struct {
	httpServer *http.Server
	cfg        Config
}

// New creates a server routing the JSON API onto the given services.
func New(cfg Config, suggester Suggester, learner Learner, parser TranscriptParser) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	h := &handlers{suggester: suggester, learner: learner, parser: parser}

	mux := http.NewServeMux()
	mux.HandleFunc("/suggest", h.handleSuggest)
	mux.HandleFunc("/feedback", h.handleFeedback)
	mux.HandleFunc("/accuracy", h.handleAccuracy)
	mux.HandleFunc("/generate-rules", h.handleGenerateRules)
	mux.HandleFunc("/statistics", h.handleStatistics)
	mux.HandleFunc("/parse", h.handleParse)
	mux.HandleFunc("/health", handleHealth)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      logging(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
