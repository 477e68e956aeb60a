package seeding

import (
	"errors"
	"fmt"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/tiebreaker"
)

const (
	// SeedsPerConference is the size of each conference's postseason field
	SeedsPerConference = 7
	// DivisionsPerConference is the number of division winners seeded 1-4
	DivisionsPerConference = 4
	// WildCardsPerConference is the number of wild cards seeded 5-7
	WildCardsPerConference = SeedsPerConference - DivisionsPerConference
)

var (
	ErrDivisionCount     = errors.New("conference must have exactly four division winners")
	ErrInsufficientTeams = errors.New("conference has too few teams to fill the playoff field")
	ErrInvalidSeeding    = errors.New("invalid playoff seeding")
)

// PlayoffSeed is one team's position in its conference's postseason field
type PlayoffSeed struct {
	Seed           int               `json:"seed"`
	TeamID         string            `json:"team_id"`
	Name           string            `json:"name,omitempty"`
	Conference     league.Conference `json:"conference"`
	Division       string            `json:"division"`
	DivisionWinner bool              `json:"division_winner"`
	Record         league.Record     `json:"record"`
	WinPercentage  float64           `json:"win_percentage"`
	SOV            float64           `json:"sov"`
	SOS            float64           `json:"sos"`
}

// WildCardMatchup is a fixed first-round pairing. The higher seed hosts.
type WildCardMatchup struct {
	Conference league.Conference `json:"conference"`
	HigherSeed PlayoffSeed       `json:"higher_seed"`
	LowerSeed  PlayoffSeed       `json:"lower_seed"`
	HomeTeamID string            `json:"home_team_id"`
	AwayTeamID string            `json:"away_team_id"`
}

// NewWildCardMatchup orders the two seeds and assigns home field to the higher seed
func NewWildCardMatchup(a, b PlayoffSeed) WildCardMatchup {
	if b.Seed < a.Seed {
		a, b = b, a
	}
	return WildCardMatchup{
		Conference: a.Conference,
		HigherSeed: a,
		LowerSeed:  b,
		HomeTeamID: a.TeamID,
		AwayTeamID: b.TeamID,
	}
}

func (m WildCardMatchup) String() string {
	return fmt.Sprintf("%s: (%d) %s vs (%d) %s", m.Conference, m.HigherSeed.Seed, m.HigherSeed.TeamID, m.LowerSeed.Seed, m.LowerSeed.TeamID)
}

// PlayoffSeeding is the complete postseason field for one season
type PlayoffSeeding struct {
	Season      int                 `json:"season"`
	AFC         []PlayoffSeed       `json:"afc"`
	NFC         []PlayoffSeed       `json:"nfc"`
	Matchups    []WildCardMatchup   `json:"matchups"`
	ComputedAt  time.Time           `json:"computed_at"`
	Tiebreakers []tiebreaker.Result `json:"tiebreakers,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Seeds returns the ordered seed list of a conference
func (s *PlayoffSeeding) Seeds(conf league.Conference) []PlayoffSeed {
	switch conf {
	case league.AFC:
		return s.AFC
	case league.NFC:
		return s.NFC
	}
	return nil
}

// SeedFor looks up a team's seed across both conferences
func (s *PlayoffSeeding) SeedFor(teamID string) (PlayoffSeed, bool) {
	for _, conf := range league.Conferences() {
		for _, seed := range s.Seeds(conf) {
			if seed.TeamID == teamID {
				return seed, true
			}
		}
	}
	return PlayoffSeed{}, false
}

// TeamIDs returns every seeded team, AFC first, in seed order
func (s *PlayoffSeeding) TeamIDs() []string {
	ids := make([]string, 0, 2*SeedsPerConference)
	for _, conf := range league.Conferences() {
		for _, seed := range s.Seeds(conf) {
			ids = append(ids, seed.TeamID)
		}
	}
	return ids
}

// Validate checks the structural invariants of a seeding: seven seeds per
// conference numbered 1..7, division winners exactly at 1-4, fourteen distinct
// teams and the (2,7), (3,6), (4,5) matchups with the higher seed at home.
func (s *PlayoffSeeding) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil seeding", ErrInvalidSeeding)
	}

	seen := make(map[string]bool, 2*SeedsPerConference)
	for _, conf := range league.Conferences() {
		seeds := s.Seeds(conf)
		if len(seeds) != SeedsPerConference {
			return fmt.Errorf("%w: %s has %d seeds, expected %d", ErrInvalidSeeding, conf, len(seeds), SeedsPerConference)
		}
		for i, seed := range seeds {
			if seed.Seed != i+1 {
				return fmt.Errorf("%w: %s seed at position %d is numbered %d", ErrInvalidSeeding, conf, i+1, seed.Seed)
			}
			if seed.Conference != conf {
				return fmt.Errorf("%w: %s seeded in %s", ErrInvalidSeeding, seed.TeamID, conf)
			}
			if seed.DivisionWinner != (seed.Seed <= DivisionsPerConference) {
				return fmt.Errorf("%w: %s seed %d has division_winner=%t", ErrInvalidSeeding, conf, seed.Seed, seed.DivisionWinner)
			}
			if seen[seed.TeamID] {
				return fmt.Errorf("%w: team %s seeded twice", ErrInvalidSeeding, seed.TeamID)
			}
			seen[seed.TeamID] = true
		}
	}

	if len(s.Matchups) != 2*WildCardsPerConference {
		return fmt.Errorf("%w: %d wild card matchups, expected %d", ErrInvalidSeeding, len(s.Matchups), 2*WildCardsPerConference)
	}
	for _, m := range s.Matchups {
		if m.HigherSeed.Seed+m.LowerSeed.Seed != 9 || m.HigherSeed.Seed < 2 || m.HigherSeed.Seed > 4 {
			return fmt.Errorf("%w: unexpected matchup %s", ErrInvalidSeeding, m)
		}
		if m.HomeTeamID != m.HigherSeed.TeamID || m.AwayTeamID != m.LowerSeed.TeamID {
			return fmt.Errorf("%w: matchup %s does not host the higher seed", ErrInvalidSeeding, m)
		}
	}

	return nil
}
