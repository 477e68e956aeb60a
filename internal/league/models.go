package league

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when season input fails validation
var ErrInvalidInput = errors.New("invalid season input")

// Conference represents one of the two conferences of the league
type Conference string

const (
	AFC Conference = "AFC"
	NFC Conference = "NFC"
)

// Conferences returns both conferences in reporting order
func Conferences() []Conference {
	return []Conference{AFC, NFC}
}

// Valid reports whether c names a known conference
func (c Conference) Valid() bool {
	switch c {
	case AFC, NFC:
		return true
	}
	return false
}

// Record is a win-loss-tie tally
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Games returns the number of games in the tally
func (r Record) Games() int {
	return r.Wins + r.Losses + r.Ties
}

// WinPercentage counts a tie as half a win. A record with no games is 0.
func (r Record) WinPercentage() float64 {
	games := r.Games()
	if games == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(games)
}

// Add returns the sum of two records
func (r Record) Add(other Record) Record {
	return Record{
		Wins:   r.Wins + other.Wins,
		Losses: r.Losses + other.Losses,
		Ties:   r.Ties + other.Ties,
	}
}

func (r Record) String() string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// TeamRecord is a team's final regular season record as produced by the standings service
type TeamRecord struct {
	TeamID           string            `json:"team_id"`
	Name             string            `json:"name,omitempty"`
	Conference       Conference        `json:"conference"`
	Division         string            `json:"division"`
	Overall          Record            `json:"overall"`
	DivisionRecord   Record            `json:"division_record"`
	ConferenceRecord Record            `json:"conference_record"`
	Home             Record            `json:"home"`
	Away             Record            `json:"away"`
	PointsFor        int               `json:"points_for"`
	PointsAgainst    int               `json:"points_against"`
	SOV              float64           `json:"sov,omitempty"`
	SOS              float64           `json:"sos,omitempty"`
	HeadToHead       map[string]Record `json:"head_to_head,omitempty"` // opponent -> tally
}

// WinPercentage returns the overall win percentage
func (t TeamRecord) WinPercentage() float64 {
	return t.Overall.WinPercentage()
}

// NetPoints returns points scored minus points allowed
func (t TeamRecord) NetPoints() int {
	return t.PointsFor - t.PointsAgainst
}

// DisplayName prefers the team name and falls back to the id
func (t TeamRecord) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.TeamID
}

// GameResult is one completed regular season game
type GameResult struct {
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	Week       int    `json:"week,omitempty"`
}

// IsTie reports whether the game ended level
func (g GameResult) IsTie() bool {
	return g.HomeScore == g.AwayScore
}

// Winner returns the winning team id, or "" for a tie
func (g GameResult) Winner() string {
	switch {
	case g.HomeScore > g.AwayScore:
		return g.HomeTeamID
	case g.AwayScore > g.HomeScore:
		return g.AwayTeamID
	}
	return ""
}

// Loser returns the losing team id, or "" for a tie
func (g GameResult) Loser() string {
	switch {
	case g.HomeScore > g.AwayScore:
		return g.AwayTeamID
	case g.AwayScore > g.HomeScore:
		return g.HomeTeamID
	}
	return ""
}

// Involves reports whether the team played in the game
func (g GameResult) Involves(teamID string) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// Opponent returns the other team in the game
func (g GameResult) Opponent(teamID string) string {
	if g.HomeTeamID == teamID {
		return g.AwayTeamID
	}
	return g.HomeTeamID
}

// PointsFor returns the score of the given team
func (g GameResult) PointsFor(teamID string) int {
	if g.HomeTeamID == teamID {
		return g.HomeScore
	}
	return g.AwayScore
}

// PointsAgainst returns the score of the given team's opponent
func (g GameResult) PointsAgainst(teamID string) int {
	if g.HomeTeamID == teamID {
		return g.AwayScore
	}
	return g.HomeScore
}

// PlayoffSeedingInput is everything the seeding calculation needs for one season
type PlayoffSeedingInput struct {
	Season     int                   `json:"season"`
	Teams      map[string]TeamRecord `json:"teams"`
	HeadToHead map[string]string     `json:"head_to_head,omitempty"` // "A|B" -> "2-0"
	Games      []GameResult          `json:"games,omitempty"`
}

// Validate checks the structural integrity of the input
func (in *PlayoffSeedingInput) Validate() error {
	if in == nil || len(in.Teams) == 0 {
		return fmt.Errorf("%w: no team records", ErrInvalidInput)
	}

	for id, team := range in.Teams {
		if team.TeamID == "" {
			return fmt.Errorf("%w: team %q has no team_id", ErrInvalidInput, id)
		}
		if team.TeamID != id {
			return fmt.Errorf("%w: team key %q does not match team_id %q", ErrInvalidInput, id, team.TeamID)
		}
		if !team.Conference.Valid() {
			return fmt.Errorf("%w: team %s has unknown conference %q", ErrInvalidInput, id, team.Conference)
		}
		if team.Division == "" {
			return fmt.Errorf("%w: team %s has no division", ErrInvalidInput, id)
		}
		for _, r := range []Record{team.Overall, team.DivisionRecord, team.ConferenceRecord, team.Home, team.Away} {
			if r.Wins < 0 || r.Losses < 0 || r.Ties < 0 {
				return fmt.Errorf("%w: team %s has a negative record", ErrInvalidInput, id)
			}
		}
	}

	for i, g := range in.Games {
		if _, ok := in.Teams[g.HomeTeamID]; !ok {
			return fmt.Errorf("%w: game %d references unknown home team %q", ErrInvalidInput, i, g.HomeTeamID)
		}
		if _, ok := in.Teams[g.AwayTeamID]; !ok {
			return fmt.Errorf("%w: game %d references unknown away team %q", ErrInvalidInput, i, g.AwayTeamID)
		}
		if g.HomeTeamID == g.AwayTeamID {
			return fmt.Errorf("%w: game %d has the same team on both sides", ErrInvalidInput, i)
		}
	}

	pairs := make(map[string]string, len(in.HeadToHead))
	for key, value := range in.HeadToHead {
		a, b, err := splitPairKey(key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if prev, ok := pairs[PairKey(a, b)]; ok {
			return fmt.Errorf("%w: head-to-head pair listed twice as %s and %s", ErrInvalidInput, prev, key)
		}
		pairs[PairKey(a, b)] = key
		if _, err := ParseSeries(value); err != nil {
			return fmt.Errorf("%w: head-to-head %s: %v", ErrInvalidInput, key, err)
		}
	}

	return nil
}
