// Package server exposes the task actions over HTTP so a bot runtime can
// invoke them for a conversation.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jtask/internal/actions"
	"jtask/internal/logging"
	"jtask/internal/state"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server is the bot-facing HTTP endpoint.
type Server struct {
	actions *actions.Actions
	store   state.Store
	logger  *slog.Logger
	router  *gin.Engine
}

// New creates a Server. Task records are kept in store, one conversation
// per path id. The gin mode is left to the caller.
func New(a *actions.Actions, store state.Store, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		actions: a,
		store:   store,
		logger:  logging.OrDiscard(logger),
		router:  router,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/conversations/:id/actions/:name", s.handleAction)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
