package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pefman/raid-odds/internal/config"
	"github.com/pefman/raid-odds/internal/game"
	"github.com/pefman/raid-odds/internal/logging"
	"github.com/pefman/raid-odds/internal/models"
)

// maxDiceBudget bounds allocation enumeration and simulation per request.
const maxDiceBudget = 40

type server struct {
	cfg      config.API
	log      zerolog.Logger
	cache    *game.BuildingCache
	resolver *game.Resolver
	seedFunc func() (int64, error)
}

func newServer(cfg config.API, logger zerolog.Logger) *server {
	cache := game.NewBuildingCache()
	return &server{
		cfg:      cfg,
		log:      logger,
		cache:    cache,
		resolver: game.NewResolver(cache, cfg.MaxStates),
		seedFunc: engineSeed,
	}
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api.HandleFunc("/dice", s.handleDice).Methods(http.MethodGet)
	api.HandleFunc("/allocations/{dice:[0-9]+}", s.handleAllocations).Methods(http.MethodGet)
	api.HandleFunc("/roll", s.handleRoll).Methods(http.MethodPost)
	api.HandleFunc("/resolve", s.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/round", s.handleRound).Methods(http.MethodPost)

	// Statistics endpoints
	api.HandleFunc("/stats", GetStatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/widest", GetWidestByDayHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/widest/today", GetWidestTodayHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/cache", s.handleCacheStats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unsupported path")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})
	return withCORS(r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: msg,
		Status:  code,
	})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidScenario),
		errors.Is(err, game.ErrInvalidTally),
		errors.Is(err, game.ErrInvalidAllocation),
		errors.Is(err, game.ErrInvalidTrials):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrStateLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, code, err.Error())
}

// simple CORS for GET/POST/OPTIONS
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogConsole)

	srv := newServer(cfg, logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().
		Str("addr", addr).
		Int("max_states", cfg.MaxStates).
		Int("workers", cfg.Workers).
		Msg("battle API listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}
}
