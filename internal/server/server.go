package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/muratoffalex/relaybot/internal/logger"
	"github.com/muratoffalex/relaybot/internal/telegram"
)

const (
	StatusRunning = "Bot is running 🚀"

	maxUpdateSize   = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// UpdateHandler processes one decoded Bot API update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update telegram.Update) error
}

type Server struct {
	router  chi.Router
	handler UpdateHandler
	logger  logger.Logger
	http    *http.Server
}

func New(addr string, handler UpdateHandler, log logger.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		handler: handler,
		logger:  log.WithField("component", "server"),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/", s.handleHealth)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/", s.handleWebhook)
	s.router.Post("/webhook", s.handleWebhook)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.http.Addr).Info("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": StatusRunning})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegram.Update
	body := http.MaxBytesReader(w, r.Body, maxUpdateSize)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		s.logger.WithError(err).Warn("Malformed webhook update")
		s.errorResponse(w, http.StatusBadRequest, "Invalid update: "+err.Error())
		return
	}

	// Telegram redelivers on non-2xx, so handling errors are only logged.
	if err := s.handler.HandleUpdate(context.WithoutCancel(r.Context()), update); err != nil {
		s.logger.WithError(err).WithField("update_id", update.UpdateID).Debug("Update not handled")
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to write response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request handled")
	})
}
