package bracket

import (
	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
)

// RoundBracket holds the games of one round
type RoundBracket struct {
	Round Round         `json:"round"`
	Games []PlayoffGame `json:"games"`
}

// Participating lists every team scheduled in the round
func (rb *RoundBracket) Participating() []string {
	ids := make([]string, 0, 2*len(rb.Games))
	for _, g := range rb.Games {
		ids = append(ids, g.HomeTeamID, g.AwayTeamID)
	}
	return ids
}

// Advancing lists the winners recorded so far
func (rb *RoundBracket) Advancing() []string {
	ids := make([]string, 0, len(rb.Games))
	for _, g := range rb.Games {
		if g.Completed() {
			ids = append(ids, g.WinnerID)
		}
	}
	return ids
}

// Eliminated lists the losers recorded so far
func (rb *RoundBracket) Eliminated() []string {
	ids := make([]string, 0, len(rb.Games))
	for _, g := range rb.Games {
		if g.Completed() {
			ids = append(ids, g.LoserID())
		}
	}
	return ids
}

// CompletedCount returns how many games in the round have a result
func (rb *RoundBracket) CompletedCount() int {
	n := 0
	for _, g := range rb.Games {
		if g.Completed() {
			n++
		}
	}
	return n
}

// Complete requires every game decided and the round's fixed game count
func (rb *RoundBracket) Complete() bool {
	return len(rb.Games) == rb.Round.GameCount() && rb.CompletedCount() == len(rb.Games)
}

func (rb *RoundBracket) game(id string) (*PlayoffGame, bool) {
	for i := range rb.Games {
		if rb.Games[i].ID == id {
			return &rb.Games[i], true
		}
	}
	return nil, false
}

func (rb *RoundBracket) clone() RoundBracket {
	games := make([]PlayoffGame, len(rb.Games))
	copy(games, rb.Games)
	for i := range games {
		if games[i].ScheduledAt != nil {
			at := *games[i].ScheduledAt
			games[i].ScheduledAt = &at
		}
	}
	return RoundBracket{Round: rb.Round, Games: games}
}

// BracketState is the full progression of one tournament. It exclusively
// owns its rounds and games.
type BracketState struct {
	Season          int
	Seeds           map[string]seeding.PlayoffSeed
	Rounds          []*RoundBracket
	CurrentRound    Round
	AFCChampion     string
	NFCChampion     string
	SuperBowlWinner string
	Complete        bool
}

func (s *BracketState) round(r Round) (*RoundBracket, bool) {
	for _, rb := range s.Rounds {
		if rb.Round == r {
			return rb, true
		}
	}
	return nil, false
}

func (s *BracketState) game(id string) (*PlayoffGame, bool) {
	for _, rb := range s.Rounds {
		if g, ok := rb.game(id); ok {
			return g, true
		}
	}
	return nil, false
}

func (s *BracketState) seed(teamID string) int {
	return s.Seeds[teamID].Seed
}

func (s *BracketState) conference(teamID string) league.Conference {
	return s.Seeds[teamID].Conference
}
