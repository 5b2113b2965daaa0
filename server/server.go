// Package server exposes transcription and melody scoring over HTTP. Clients
// send the features produced by their onset, beat, pitch and key detectors as
// JSON; no audio is handled here.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RyanBlaney/sonido-score/config"
	"github.com/RyanBlaney/sonido-score/logging"
	"github.com/RyanBlaney/sonido-score/melody"
	"github.com/RyanBlaney/sonido-score/render"
	"github.com/RyanBlaney/sonido-score/transcription"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Endpoints lists the routes advertised by the root endpoint
var Endpoints = []string{
	"/songs",
	"/api/transcribe",
	"/analyzeSinglePlayer",
}

// Server holds the handlers and their shared, read-only collaborators
type Server struct {
	config        *config.Config
	judge         *melody.Judge
	renderOptions render.Options
	logger        logging.Logger
}

// New builds a server. A nil registry means the built-in melodies.
func New(cfg *config.Config, registry *melody.Registry) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	judge, err := melody.NewJudge(registry, cfg.Segments)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:        cfg,
		judge:         judge,
		renderOptions: render.DefaultOptions(),
		logger: logging.WithFields(logging.Fields{
			"component": "server",
		}),
	}, nil
}

// Handler returns the routed handler wrapped in request ids, logging and CORS
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.requestID, s.accessLog)

	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/songs", s.handleSongs).Methods(http.MethodGet)
	router.HandleFunc("/api/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	router.HandleFunc("/analyzeSinglePlayer", s.handleAnalyzeSinglePlayer).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  seconds(s.config.Server.ReadTimeoutSeconds),
		WriteTimeout: seconds(s.config.Server.WriteTimeoutSeconds),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", logging.Fields{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newAssembler builds an assembler for one request, overriding the
// configured strategy when the request names one
func (s *Server) newAssembler(strategy string) (*transcription.Assembler, error) {
	cfg := s.config.Transcription
	if strategy != "" {
		cfg.Strategy = strategy
	}
	return transcription.NewAssembler(cfg)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
