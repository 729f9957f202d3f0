package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/metrics"
	"github.com/JakeFAU/puzzle-archive/internal/middleware"
)

const dateLayout = "2006-01-02"

// PuzzleReader exposes stored per-date puzzle documents.
type PuzzleReader interface {
	Dates() ([]string, error)
	ReadPuzzle(date string) ([]byte, error)
}

// Config names the generated files the server hands out.
type Config struct {
	AggregatePath  string
	GamesPath      string
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the archive outputs.
type Server struct {
	router  chi.Router
	puzzles PuzzleReader
	cfg     Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(puzzles PuzzleReader, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		puzzles: puzzles,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/puzzles.js", s.aggregate)

	r.Route("/api", func(r chi.Router) {
		r.Get("/puzzles", s.listPuzzles)
		r.Get("/puzzles/{date}", s.getPuzzle)
		r.Get("/jeopardy", s.games)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) aggregate(w http.ResponseWriter, _ *http.Request) {
	s.serveFile(w, s.cfg.AggregatePath, "text/javascript; charset=utf-8")
}

func (s *Server) games(w http.ResponseWriter, _ *http.Request) {
	s.serveFile(w, s.cfg.GamesPath, "application/json")
}

func (s *Server) listPuzzles(w http.ResponseWriter, _ *http.Request) {
	dates, err := s.puzzles.Dates()
	if err != nil {
		s.logger.Error("list puzzles failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "list puzzles failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) getPuzzle(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	data, err := s.puzzles.ReadPuzzle(date)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "puzzle not found")
			return
		}
		s.logger.Error("read puzzle failed", zap.String("date", date), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "read puzzle failed")
		return
	}
	s.writeRaw(w, "application/json", data)
}

func (s *Server) serveFile(w http.ResponseWriter, path, contentType string) {
	if path == "" {
		s.writeError(w, http.StatusNotFound, "not configured")
		return
	}
	// #nosec G304 -- path comes from configuration, not the request.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "not generated yet")
			return
		}
		s.logger.Error("read output failed", zap.String("path", path), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "read output failed")
		return
	}
	s.writeRaw(w, contentType, data)
}

func (s *Server) writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
