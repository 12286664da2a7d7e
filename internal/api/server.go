// Package api exposes the quiz engine over HTTP. Callers authenticate with
// an HS256 bearer token; the token's email (or sub) claim is the user.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// Engine is the quiz lifecycle the handlers drive. *session.Controller
// implements it.
type Engine interface {
	GenerateOrResume(ctx context.Context, user, topic string) ([]quiz.Question, error)
	Submit(ctx context.Context, user, topic string, answers []quiz.Answer, cheating bool) (quiz.Result, error)
	Cleanup(ctx context.Context, user, topic string) error
	EvaluateLatest(ctx context.Context, user, topic string) (quiz.Evaluation, error)
	Mastered(ctx context.Context, user string) ([]quiz.MasteryEntry, error)
	History(ctx context.Context, user, topic string, limit int) ([]*quiz.Record, error)
}

type Options struct {
	Engine      Engine
	Auth        *Authenticator
	Log         *logger.Logger
	CORSOrigins []string

	// RequestTimeout bounds each request. Default: 60s, which leaves room
	// for a slow question generation.
	RequestTimeout time.Duration
}

type Server struct {
	engine Engine
	auth   *Authenticator
	log    *logger.Logger
	router chi.Router
}

func NewServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		engine: opts.Engine,
		auth:   opts.Auth,
		log:    opts.Log.With("component", "api"),
	}
	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.log), middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Route("/question", func(r chi.Router) {
			r.Get("/generate/{topic}", s.handleGenerate)
			r.Post("/submit/{topic}", s.handleSubmit)
			r.Delete("/cleanup/{topic}", s.handleCleanup)
			r.Get("/session/{topic}", s.handleSession)
		})
		r.Route("/assessment", func(r chi.Router) {
			r.Get("/evaluate/{topic}", s.handleEvaluate)
			r.Get("/history/{topic}", s.handleHistory)
		})
		r.Get("/mastery", s.handleMastery)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains open
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
