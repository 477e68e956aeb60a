package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for an unknown tournament id
var ErrNotFound = errors.New("tournament not found")

// Entry describes a registered tournament
type Entry struct {
	ID         string
	Season     int
	CreatedAt  time.Time
	Tournament *bracket.Tournament
}

// Registry keeps computed seedings, the standings they came from and live
// tournaments in memory
type Registry struct {
	mu          sync.RWMutex
	seedings    map[int]*seeding.PlayoffSeeding
	standings   map[int]*league.PlayoffSeedingInput
	tournaments map[string]*Entry
	order       []string

	logger *logrus.Logger
	now    func() time.Time
}

// New creates an empty registry
func New(logger *logrus.Logger) *Registry {
	return &Registry{
		seedings:    make(map[int]*seeding.PlayoffSeeding),
		standings:   make(map[int]*league.PlayoffSeedingInput),
		tournaments: make(map[string]*Entry),
		logger:      logger,
		now:         time.Now,
	}
}

// PutSeeding stores the latest seeding for its season
func (r *Registry) PutSeeding(s *seeding.PlayoffSeeding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seedings[s.Season] = s
}

// Seeding returns the cached seeding for a season
func (r *Registry) Seeding(season int) (*seeding.PlayoffSeeding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.seedings[season]
	return s, ok
}

// PutStandings stores the standings a season was seeded from
func (r *Registry) PutStandings(input *league.PlayoffSeedingInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.standings[input.Season] = input
}

// Standings returns the cached standings for a season
func (r *Registry) Standings(season int) (*league.PlayoffSeedingInput, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.standings[season]
	return in, ok
}

// Create starts a tournament from a seeding and registers it under a new id
func (r *Registry) Create(s *seeding.PlayoffSeeding) (string, *bracket.Tournament, error) {
	t, err := bracket.NewTournament(s, r.logger)
	if err != nil {
		return "", nil, err
	}

	id := uuid.New().String()

	r.mu.Lock()
	r.tournaments[id] = &Entry{ID: id, Season: s.Season, CreatedAt: r.now(), Tournament: t}
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"tournament_id": id,
		"season":        s.Season,
	}).Info("Registered tournament")

	return id, t, nil
}

// Get returns a live tournament by id
func (r *Registry) Get(id string) (*bracket.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Tournament, nil
}

// List returns every tournament in creation order
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tournaments[id])
	}
	return out
}
