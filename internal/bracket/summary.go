package bracket

import (
	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
)

// RoundSummary is a read-only view of one round
type RoundSummary struct {
	Round          Round         `json:"round"`
	ExpectedGames  int           `json:"expected_games"`
	CompletedGames int           `json:"completed_games"`
	RemainingGames int           `json:"remaining_games"`
	Participating  []string      `json:"participating"`
	Advancing      []string      `json:"advancing"`
	Eliminated     []string      `json:"eliminated"`
	Games          []PlayoffGame `json:"games"`
}

// Summary is a serializable snapshot of a tournament. It shares no state
// with the tournament it was taken from.
type Summary struct {
	Season             int                   `json:"season"`
	CurrentRound       Round                 `json:"current_round"`
	Rounds             []RoundSummary        `json:"rounds"`
	Seeds              []seeding.PlayoffSeed `json:"seeds"`
	AFCChampion        string                `json:"afc_champion,omitempty"`
	NFCChampion        string                `json:"nfc_champion,omitempty"`
	SuperBowlWinner    string                `json:"super_bowl_winner,omitempty"`
	TournamentComplete bool                  `json:"tournament_complete"`
}

// Round returns the summary of a started round
func (s Summary) Round(r Round) (RoundSummary, bool) {
	for _, rs := range s.Rounds {
		if rs.Round == r {
			return rs, true
		}
	}
	return RoundSummary{}, false
}

// Summary takes a snapshot of the tournament
func (t *Tournament) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := Summary{
		Season:             t.state.Season,
		CurrentRound:       t.state.CurrentRound,
		AFCChampion:        t.state.AFCChampion,
		NFCChampion:        t.state.NFCChampion,
		SuperBowlWinner:    t.state.SuperBowlWinner,
		TournamentComplete: t.state.Complete,
	}

	for _, rb := range t.state.Rounds {
		c := rb.clone()
		expected := rb.Round.GameCount()
		done := c.CompletedCount()
		out.Rounds = append(out.Rounds, RoundSummary{
			Round:          c.Round,
			ExpectedGames:  expected,
			CompletedGames: done,
			RemainingGames: expected - done,
			Participating:  c.Participating(),
			Advancing:      c.Advancing(),
			Eliminated:     c.Eliminated(),
			Games:          c.Games,
		})
	}

	for _, conf := range league.Conferences() {
		for seed := 1; seed <= seeding.SeedsPerConference; seed++ {
			for _, ps := range t.state.Seeds {
				if ps.Conference == conf && ps.Seed == seed {
					out.Seeds = append(out.Seeds, ps)
				}
			}
		}
	}

	return out
}
