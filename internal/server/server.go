// Package server exposes the feedback append endpoint over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/voxfeed/voxfeed/internal/feedback"
)

type Config struct {
	Bind           string
	AllowedOrigins []string
}

// Server wires the feedback log behind POST /feedback.
type Server struct {
	cfg      Config
	store    *feedback.Log
	log      zerolog.Logger
	engine   *gin.Engine
	validate *validator.Validate
}

func New(cfg Config, store *feedback.Log, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		store:    store,
		log:      log,
		validate: validator.New(),
	}

	engine := gin.New()
	engine.Use(
		RequestID(),
		RequestLogger(log),
		Recovery(log),
		CORS(cfg.AllowedOrigins),
	)
	engine.GET("/health", s.handleHealth)
	engine.POST("/feedback", s.handleAppendFeedback)
	s.engine = engine

	return s
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Bind,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("bind", s.cfg.Bind).Msg("feedback server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type appendRequest struct {
	Text      string `json:"text" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
}

// handleAppendFeedback validates the payload and appends one record. The
// response is all-or-nothing: either the record is durably stored and
// success is reported, or an error is, never a partial state.
func (s *Server) handleAppendFeedback(c *gin.Context) {
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": feedback.ErrMissingField.Error()})
		return
	}

	rec := feedback.Record{Text: req.Text, Timestamp: req.Timestamp}
	if err := s.store.Append(rec); err != nil {
		if errors.Is(err, feedback.ErrMissingField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.log.Error().Err(err).Msg("append feedback failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
