package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/core/services"
	"github.com/jakechorley/church-ops/pkg/db"
)

// Server exposes the volunteer scheduling operations over HTTP
type Server struct {
	store    db.Database
	notifier services.Notifier
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// NewServer creates an API server
func NewServer(store db.Database, notifier services.Notifier, tokens *auth.TokenManager, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		notifier: notifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// Router builds the route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/invitations/respond", s.respondByEmail)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/events/{eventID}/positions", s.listPositions)
		r.Post("/events/{eventID}/invitations", s.sendInvitations)

		r.Post("/positions", s.createPosition)
		r.Delete("/positions/{positionID}", s.deletePosition)
		r.Get("/positions/{positionID}/eligible", s.eligibleVolunteers)
		r.Post("/positions/{positionID}/assignments", s.assignVolunteer)

		r.Delete("/assignments/{assignmentID}", s.unassignVolunteer)
		r.Post("/assignments/{assignmentID}/response", s.respondToInvitation)

		r.Post("/invitations/bulk", s.sendBulkInvitations)
		r.Get("/invitations/pending", s.pendingInvitations)

		r.Get("/profiles/{profileID}/unavailability", s.listUnavailability)
		r.Post("/profiles/{profileID}/unavailability", s.addUnavailability)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
