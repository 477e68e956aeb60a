package bracket

import (
	"fmt"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
)

// PlayoffGame is one postseason game. Seeds are original conference seeds.
type PlayoffGame struct {
	ID          string            `json:"id"`
	Round       Round             `json:"round"`
	Conference  league.Conference `json:"conference,omitempty"`
	HomeTeamID  string            `json:"home_team_id"`
	AwayTeamID  string            `json:"away_team_id"`
	HomeSeed    int               `json:"home_seed"`
	AwaySeed    int               `json:"away_seed"`
	NeutralSite bool              `json:"neutral_site"`
	Week        int               `json:"week"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Status      GameStatus        `json:"status"`
	WinnerID    string            `json:"winner_id,omitempty"`
	HomeScore   int               `json:"home_score"`
	AwayScore   int               `json:"away_score"`
}

// Outcome is a final result submitted for a game
type Outcome struct {
	GameID    string `json:"game_id"`
	WinnerID  string `json:"winner_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// Completed reports whether a winner has been recorded
func (g PlayoffGame) Completed() bool {
	return g.Status == StatusCompleted && g.WinnerID != ""
}

// Involves reports whether the team plays in this game
func (g PlayoffGame) Involves(teamID string) bool {
	return teamID != "" && (g.HomeTeamID == teamID || g.AwayTeamID == teamID)
}

// Participants returns the home and away team ids
func (g PlayoffGame) Participants() []string {
	return []string{g.HomeTeamID, g.AwayTeamID}
}

// LoserID is empty until the game is completed
func (g PlayoffGame) LoserID() string {
	switch {
	case !g.Completed():
		return ""
	case g.WinnerID == g.HomeTeamID:
		return g.AwayTeamID
	default:
		return g.HomeTeamID
	}
}

func (g PlayoffGame) String() string {
	return fmt.Sprintf("%s: (%d) %s vs (%d) %s", g.ID, g.HomeSeed, g.HomeTeamID, g.AwaySeed, g.AwayTeamID)
}

// gameID builds a deterministic id such as 2024-WC-AFC-2v7, 2024-CC-NFC or 2024-SB
func gameID(season int, round Round, conf league.Conference, homeSeed, awaySeed int) string {
	switch round {
	case RoundSuperBowl:
		return fmt.Sprintf("%d-%s", season, round.Code())
	case RoundConferenceChampionship:
		return fmt.Sprintf("%d-%s-%s", season, round.Code(), conf)
	}
	return fmt.Sprintf("%d-%s-%s-%dv%d", season, round.Code(), conf, homeSeed, awaySeed)
}

// checkOutcome validates an outcome against a game without mutating it
func checkOutcome(g PlayoffGame, o Outcome) error {
	if g.Completed() {
		return fmt.Errorf("%w: %s", ErrGameCompleted, g.ID)
	}
	if g.Status == StatusCancelled {
		return fmt.Errorf("%w: %s is cancelled and must be rescheduled first", ErrInvalidTransition, g.ID)
	}
	if !g.Involves(o.WinnerID) {
		return fmt.Errorf("%w: %q is not playing in %s", ErrInvalidWinner, o.WinnerID, g.ID)
	}
	if o.HomeScore < 0 || o.AwayScore < 0 {
		return fmt.Errorf("%w: negative score %d-%d", ErrInvalidScore, o.HomeScore, o.AwayScore)
	}
	if o.HomeScore == o.AwayScore {
		return fmt.Errorf("%w: playoff games cannot end tied (%d-%d)", ErrInvalidScore, o.HomeScore, o.AwayScore)
	}
	homeWon := o.HomeScore > o.AwayScore
	if homeWon != (o.WinnerID == g.HomeTeamID) {
		return fmt.Errorf("%w: %s did not outscore its opponent (%d-%d)", ErrInvalidScore, o.WinnerID, o.HomeScore, o.AwayScore)
	}
	return nil
}

func (g *PlayoffGame) apply(o Outcome) {
	g.WinnerID = o.WinnerID
	g.HomeScore = o.HomeScore
	g.AwayScore = o.AwayScore
	g.Status = StatusCompleted
}
