package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/registry"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// TournamentInfo is the list view of a tournament
type TournamentInfo struct {
	ID              string        `json:"id"`
	Season          int           `json:"season"`
	CreatedAt       time.Time     `json:"created_at"`
	CurrentRound    bracket.Round `json:"current_round"`
	Complete        bool          `json:"tournament_complete"`
	SuperBowlWinner string        `json:"super_bowl_winner,omitempty"`
}

// TournamentStatus is a full bracket summary with its id
type TournamentStatus struct {
	ID string `json:"id"`
	bracket.Summary
}

// ValidationReport lists integrity problems for a tournament
type ValidationReport struct {
	ID       string   `json:"id"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

// Server exposes read-only bracket status over HTTP
type Server struct {
	registry *registry.Registry
	logger   *logrus.Logger
	router   *mux.Router
}

// NewServer creates the status API over the tournament registry
func NewServer(reg *registry.Registry, logger *logrus.Logger) *Server {
	s := &Server{registry: reg, logger: logger, router: mux.NewRouter()}

	s.router.Use(s.logRequests)
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/tournaments", s.listTournaments).Methods(http.MethodGet)
	s.router.HandleFunc("/tournaments/{id}", s.getTournament).Methods(http.MethodGet)
	s.router.HandleFunc("/tournaments/{id}/validation", s.validateTournament).Methods(http.MethodGet)

	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("Starting status API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Handled status request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"tournaments": len(s.registry.List()),
		"timestamp":   time.Now().UTC(),
	})
}

func (s *Server) listTournaments(w http.ResponseWriter, r *http.Request) {
	season := 0
	if raw := r.URL.Query().Get("season"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid season", http.StatusBadRequest)
			return
		}
		season = parsed
	}

	infos := []TournamentInfo{}
	for _, e := range s.registry.List() {
		if season != 0 && e.Season != season {
			continue
		}
		summary := e.Tournament.Summary()
		infos = append(infos, TournamentInfo{
			ID:              e.ID,
			Season:          e.Season,
			CreatedAt:       e.CreatedAt,
			CurrentRound:    summary.CurrentRound,
			Complete:        summary.TournamentComplete,
			SuperBowlWinner: summary.SuperBowlWinner,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tournaments": infos,
		"count":       len(infos),
	})
}

func (s *Server) getTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.registry.Get(id)
	if err != nil {
		http.Error(w, "Tournament not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, TournamentStatus{ID: id, Summary: t.Summary()})
}

func (s *Server) validateTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.registry.Get(id)
	if err != nil {
		http.Error(w, "Tournament not found", http.StatusNotFound)
		return
	}
	problems := t.Validate()
	s.writeJSON(w, http.StatusOK, ValidationReport{ID: id, Valid: len(problems) == 0, Problems: problems})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
