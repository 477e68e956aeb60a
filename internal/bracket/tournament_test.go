package bracket

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSeeding seeds teams AFC1..AFC7 and NFC1..NFC7 by their number
func testSeeding() *seeding.PlayoffSeeding {
	s := &seeding.PlayoffSeeding{Season: 2024}
	for _, conf := range league.Conferences() {
		seeds := make([]seeding.PlayoffSeed, 0, seeding.SeedsPerConference)
		for i := 1; i <= seeding.SeedsPerConference; i++ {
			seeds = append(seeds, seeding.PlayoffSeed{
				Seed:           i,
				TeamID:         fmt.Sprintf("%s%d", conf, i),
				Conference:     conf,
				Division:       fmt.Sprintf("%s %d", conf, (i-1)%4),
				DivisionWinner: i <= seeding.DivisionsPerConference,
			})
		}
		if conf == league.AFC {
			s.AFC = seeds
		} else {
			s.NFC = seeds
		}
		s.Matchups = append(s.Matchups,
			seeding.NewWildCardMatchup(seeds[1], seeds[6]),
			seeding.NewWildCardMatchup(seeds[2], seeds[5]),
			seeding.NewWildCardMatchup(seeds[3], seeds[4]),
		)
	}
	return s
}

func newTestTournament(t *testing.T) (*Tournament, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	tour, err := NewTournament(testSeeding(), logger)
	require.NoError(t, err)
	return tour, hook
}

// outcome builds a valid final score for winner in the given game
func outcome(t *testing.T, tour *Tournament, gameID, winner string) Outcome {
	t.Helper()
	g, ok := tour.Game(gameID)
	require.True(t, ok, "game %s", gameID)
	o := Outcome{GameID: gameID, WinnerID: winner, HomeScore: 17, AwayScore: 24}
	if winner == g.HomeTeamID {
		o.HomeScore, o.AwayScore = 24, 17
	}
	return o
}

func win(t *testing.T, tour *Tournament, gameID, winner string) {
	t.Helper()
	o := outcome(t, tour, gameID, winner)
	_, err := tour.RecordResult(o.GameID, o.WinnerID, o.HomeScore, o.AwayScore)
	require.NoError(t, err)
}

// playWildCard leaves AFC survivors {2,5,6} and NFC survivors {2,3,4}
func playWildCard(t *testing.T, tour *Tournament) {
	t.Helper()
	win(t, tour, "2024-WC-AFC-2v7", "AFC2")
	win(t, tour, "2024-WC-AFC-3v6", "AFC6")
	win(t, tour, "2024-WC-AFC-4v5", "AFC5")
	win(t, tour, "2024-WC-NFC-2v7", "NFC2")
	win(t, tour, "2024-WC-NFC-3v6", "NFC3")
	win(t, tour, "2024-WC-NFC-4v5", "NFC4")
}

func TestNewTournament_BuildsWildCardRound(t *testing.T) {
	tour, _ := newTestTournament(t)

	assert.Equal(t, RoundWildCard, tour.CurrentRound())
	games := tour.Games(RoundWildCard)
	require.Len(t, games, 6)

	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
		assert.Less(t, g.HomeSeed, g.AwaySeed)
		assert.Equal(t, 9, g.HomeSeed+g.AwaySeed)
		assert.Equal(t, StatusScheduled, g.Status)
		assert.Equal(t, 1, g.Week)
	}
	assert.Equal(t, []string{
		"2024-WC-AFC-2v7", "2024-WC-AFC-3v6", "2024-WC-AFC-4v5",
		"2024-WC-NFC-2v7", "2024-WC-NFC-3v6", "2024-WC-NFC-4v5",
	}, ids)
	assert.Nil(t, tour.Games(RoundDivisional))
}

func TestNewTournament_RejectsInvalidSeeding(t *testing.T) {
	s := testSeeding()
	s.NFC = s.NFC[:6]

	tour, err := NewTournament(s, nil)
	assert.Nil(t, tour)
	assert.ErrorIs(t, err, ErrInvalidSeeding)
}

func TestAdvance_ReseedsDivisionalRound(t *testing.T) {
	tour, _ := newTestTournament(t)
	playWildCard(t, tour)

	next, err := tour.Advance()
	require.NoError(t, err)
	assert.Equal(t, RoundDivisional, next)

	games := tour.Games(RoundDivisional)
	require.Len(t, games, 4)

	// top seed hosts the lowest survivor
	assert.Equal(t, "2024-DIV-AFC-1v6", games[0].ID)
	assert.Equal(t, "AFC1", games[0].HomeTeamID)
	assert.Equal(t, "AFC6", games[0].AwayTeamID)
	assert.Equal(t, "2024-DIV-AFC-2v5", games[1].ID)
	assert.Equal(t, "AFC2", games[1].HomeTeamID)
	assert.Equal(t, "AFC5", games[1].AwayTeamID)

	assert.Equal(t, "2024-DIV-NFC-1v4", games[2].ID)
	assert.Equal(t, "2024-DIV-NFC-2v3", games[3].ID)
	for _, g := range games {
		assert.Equal(t, 2, g.Week)
		assert.False(t, g.NeutralSite)
	}
}

func TestAdvance_RequiresCompleteRound(t *testing.T) {
	tour, _ := newTestTournament(t)
	win(t, tour, "2024-WC-AFC-2v7", "AFC2")

	round, err := tour.Advance()
	assert.ErrorIs(t, err, ErrRoundIncomplete)
	assert.Equal(t, RoundWildCard, round)
	assert.Equal(t, RoundWildCard, tour.CurrentRound())
	assert.Nil(t, tour.Games(RoundDivisional))
}

func TestCompleteRound_RejectsWrongResultCount(t *testing.T) {
	tour, _ := newTestTournament(t)

	results := []Outcome{
		outcome(t, tour, "2024-WC-AFC-2v7", "AFC2"),
		outcome(t, tour, "2024-WC-AFC-3v6", "AFC3"),
		outcome(t, tour, "2024-WC-AFC-4v5", "AFC4"),
		outcome(t, tour, "2024-WC-NFC-2v7", "NFC2"),
		outcome(t, tour, "2024-WC-NFC-3v6", "NFC3"),
	}

	_, err := tour.CompleteRound(results)
	assert.ErrorIs(t, err, ErrResultCount)
	for _, g := range tour.Games(RoundWildCard) {
		assert.False(t, g.Completed(), "%s should be untouched", g.ID)
	}
}

func TestCompleteRound_ValidatesEveryResultFirst(t *testing.T) {
	tour, _ := newTestTournament(t)

	results := []Outcome{
		outcome(t, tour, "2024-WC-AFC-2v7", "AFC2"),
		outcome(t, tour, "2024-WC-AFC-3v6", "AFC3"),
		outcome(t, tour, "2024-WC-AFC-4v5", "AFC4"),
		outcome(t, tour, "2024-WC-NFC-2v7", "NFC2"),
		outcome(t, tour, "2024-WC-NFC-3v6", "NFC3"),
		{GameID: "2024-WC-NFC-4v5", WinnerID: "NFC1", HomeScore: 21, AwayScore: 14},
	}

	_, err := tour.CompleteRound(results)
	assert.ErrorIs(t, err, ErrInvalidWinner)
	for _, g := range tour.Games(RoundWildCard) {
		assert.False(t, g.Completed(), "%s should be untouched", g.ID)
	}

	results[5] = Outcome{GameID: "2024-WC-NFC-4v5", WinnerID: "NFC5", HomeScore: 10, AwayScore: 13}
	next, err := tour.CompleteRound(results)
	require.NoError(t, err)
	assert.Equal(t, RoundDivisional, next)

	games := tour.Games(RoundDivisional)
	require.Len(t, games, 4)
	assert.Equal(t, "2024-DIV-NFC-1v5", games[2].ID)
	assert.Equal(t, "2024-DIV-NFC-2v3", games[3].ID)
}

func TestCompleteRound_AcceptsAlreadyRecordedResults(t *testing.T) {
	tour, _ := newTestTournament(t)
	first := outcome(t, tour, "2024-WC-AFC-2v7", "AFC2")
	_, err := tour.RecordResult(first.GameID, first.WinnerID, first.HomeScore, first.AwayScore)
	require.NoError(t, err)

	results := []Outcome{
		first,
		outcome(t, tour, "2024-WC-AFC-3v6", "AFC3"),
		outcome(t, tour, "2024-WC-AFC-4v5", "AFC4"),
		outcome(t, tour, "2024-WC-NFC-2v7", "NFC2"),
		outcome(t, tour, "2024-WC-NFC-3v6", "NFC3"),
		outcome(t, tour, "2024-WC-NFC-4v5", "NFC4"),
	}
	next, err := tour.CompleteRound(results)
	require.NoError(t, err)
	assert.Equal(t, RoundDivisional, next)

	tour2, _ := newTestTournament(t)
	_, err = tour2.RecordResult(first.GameID, first.WinnerID, first.HomeScore, first.AwayScore)
	require.NoError(t, err)
	results[0] = outcome(t, tour2, "2024-WC-AFC-2v7", "AFC7")
	_, err = tour2.CompleteRound(results)
	assert.ErrorIs(t, err, ErrGameCompleted)
}

func TestRecordResult_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		gameID    string
		winner    string
		homeScore int
		awayScore int
		wantErr   error
	}{
		{"unknown game", "2024-WC-AFC-1v8", "AFC1", 24, 17, ErrGameNotFound},
		{"winner not playing", "2024-WC-AFC-2v7", "AFC3", 24, 17, ErrInvalidWinner},
		{"tied score", "2024-WC-AFC-2v7", "AFC2", 20, 20, ErrInvalidScore},
		{"winner outscored", "2024-WC-AFC-2v7", "AFC2", 17, 24, ErrInvalidScore},
		{"negative score", "2024-WC-AFC-2v7", "AFC7", -3, 10, ErrInvalidScore},
		{"future round game", "2024-DIV-AFC-1v7", "AFC1", 24, 17, ErrGameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour, _ := newTestTournament(t)
			before := tour.Summary()

			_, err := tour.RecordResult(tt.gameID, tt.winner, tt.homeScore, tt.awayScore)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, tour.Summary())
		})
	}
}

func TestRecordResult_RejectsSecondResult(t *testing.T) {
	tour, _ := newTestTournament(t)
	win(t, tour, "2024-WC-AFC-2v7", "AFC7")

	_, err := tour.RecordResult("2024-WC-AFC-2v7", "AFC2", 30, 3)
	assert.ErrorIs(t, err, ErrGameCompleted)

	g, _ := tour.Game("2024-WC-AFC-2v7")
	assert.Equal(t, "AFC7", g.WinnerID)
	assert.Equal(t, "AFC2", g.LoserID())
}

func TestTournament_PlaysThroughToChampion(t *testing.T) {
	tour, hook := newTestTournament(t)
	playWildCard(t, tour)
	_, err := tour.Advance()
	require.NoError(t, err)

	win(t, tour, "2024-DIV-AFC-1v6", "AFC6")
	win(t, tour, "2024-DIV-AFC-2v5", "AFC5")
	win(t, tour, "2024-DIV-NFC-1v4", "NFC1")
	win(t, tour, "2024-DIV-NFC-2v3", "NFC2")
	next, err := tour.Advance()
	require.NoError(t, err)
	assert.Equal(t, RoundConferenceChampionship, next)

	cc := tour.Games(RoundConferenceChampionship)
	require.Len(t, cc, 2)
	assert.Equal(t, "2024-CC-AFC", cc[0].ID)
	assert.Equal(t, "AFC5", cc[0].HomeTeamID, "higher original seed hosts")
	assert.Equal(t, "AFC6", cc[0].AwayTeamID)
	assert.Equal(t, "2024-CC-NFC", cc[1].ID)
	assert.Equal(t, "NFC1", cc[1].HomeTeamID)

	win(t, tour, "2024-CC-AFC", "AFC6")
	win(t, tour, "2024-CC-NFC", "NFC1")
	next, err = tour.Advance()
	require.NoError(t, err)
	assert.Equal(t, RoundSuperBowl, next)

	sb, ok := tour.Game("2024-SB")
	require.True(t, ok)
	assert.True(t, sb.NeutralSite)
	assert.Equal(t, "AFC6", sb.HomeTeamID)
	assert.Equal(t, "NFC1", sb.AwayTeamID)
	assert.Equal(t, 4, sb.Week)

	summary := tour.Summary()
	assert.False(t, summary.TournamentComplete)
	assert.Empty(t, summary.SuperBowlWinner)

	win(t, tour, "2024-SB", "NFC1")

	summary = tour.Summary()
	assert.True(t, summary.TournamentComplete)
	assert.Equal(t, RoundComplete, summary.CurrentRound)
	assert.Equal(t, "AFC6", summary.AFCChampion)
	assert.Equal(t, "NFC1", summary.NFCChampion)
	assert.Equal(t, "NFC1", summary.SuperBowlWinner)
	assert.Empty(t, tour.Validate())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Tournament complete", entry.Message)
	assert.Equal(t, "NFC1", entry.Data["champion"])

	// the bracket is frozen
	_, err = tour.RecordResult("2024-SB", "AFC6", 30, 20)
	assert.ErrorIs(t, err, ErrTournamentComplete)
	_, err = tour.Advance()
	assert.ErrorIs(t, err, ErrTournamentComplete)
	_, err = tour.CompleteRound([]Outcome{{GameID: "2024-SB", WinnerID: "AFC6", HomeScore: 30, AwayScore: 20}})
	assert.ErrorIs(t, err, ErrTournamentComplete)
	assert.ErrorIs(t, tour.StartGame("2024-SB"), ErrTournamentComplete)
	assert.Equal(t, summary, tour.Summary())
}

func TestGameStatusTransitions(t *testing.T) {
	tour, _ := newTestTournament(t)
	id := "2024-WC-NFC-3v6"

	require.NoError(t, tour.StartGame(id))
	assert.ErrorIs(t, tour.StartGame(id), ErrInvalidTransition)

	require.NoError(t, tour.CancelGame(id))
	g, _ := tour.Game(id)
	assert.Equal(t, StatusCancelled, g.Status)

	_, err := tour.RecordResult(id, "NFC3", 21, 7)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	kickoff := time.Date(2025, 1, 13, 20, 15, 0, 0, time.UTC)
	require.NoError(t, tour.RescheduleGame(id, kickoff))
	g, _ = tour.Game(id)
	assert.Equal(t, StatusScheduled, g.Status)
	require.NotNil(t, g.ScheduledAt)
	assert.True(t, kickoff.Equal(*g.ScheduledAt))

	win(t, tour, id, "NFC3")
	assert.ErrorIs(t, tour.CancelGame(id), ErrGameCompleted)
	assert.ErrorIs(t, tour.RescheduleGame(id, kickoff), ErrGameCompleted)
}

func TestValidate_ReportsProblems(t *testing.T) {
	tour, _ := newTestTournament(t)
	assert.Empty(t, tour.Validate())

	// corrupt the state directly: AFC7 now appears in two wild card games
	tour.state.Rounds[0].Games[1].AwayTeamID = "AFC7"
	tour.state.Rounds[0].Games[2].ID = "2024-WC-AFC-2v7"

	problems := tour.Validate()
	require.Len(t, problems, 2)
	joined := strings.Join(problems, "\n")
	assert.Contains(t, joined, "duplicate game id 2024-WC-AFC-2v7")
	assert.Contains(t, joined, "team AFC7 appears in")
}

func TestSummary_IsIndependentCopy(t *testing.T) {
	tour, _ := newTestTournament(t)
	kickoff := time.Date(2025, 1, 11, 16, 30, 0, 0, time.UTC)
	require.NoError(t, tour.RescheduleGame("2024-WC-AFC-2v7", kickoff))
	win(t, tour, "2024-WC-AFC-2v7", "AFC2")

	summary := tour.Summary()
	wc, ok := summary.Round(RoundWildCard)
	require.True(t, ok)
	assert.Equal(t, 6, wc.ExpectedGames)
	assert.Equal(t, 1, wc.CompletedGames)
	assert.Equal(t, 5, wc.RemainingGames)
	assert.Equal(t, []string{"AFC2"}, wc.Advancing)
	assert.Equal(t, []string{"AFC7"}, wc.Eliminated)
	assert.Len(t, wc.Participating, 12)
	require.Len(t, summary.Seeds, 14)
	assert.Equal(t, "AFC1", summary.Seeds[0].TeamID)
	assert.Equal(t, "NFC7", summary.Seeds[13].TeamID)

	wc.Games[0].WinnerID = "AFC7"
	*wc.Games[0].ScheduledAt = time.Time{}

	g, _ := tour.Game("2024-WC-AFC-2v7")
	assert.Equal(t, "AFC2", g.WinnerID)
	assert.True(t, kickoff.Equal(*g.ScheduledAt))
}

func TestSummary_JSON(t *testing.T) {
	tour, _ := newTestTournament(t)

	data, err := json.Marshal(tour.Summary())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "WILD_CARD", decoded["current_round"])
	assert.Equal(t, false, decoded["tournament_complete"])

	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, RoundWildCard, back.CurrentRound)
	assert.Equal(t, StatusScheduled, back.Rounds[0].Games[0].Status)
}

func TestRound(t *testing.T) {
	counts := map[Round]int{
		RoundWildCard:               6,
		RoundDivisional:             4,
		RoundConferenceChampionship: 2,
		RoundSuperBowl:              1,
		RoundComplete:               0,
	}
	for r, n := range counts {
		assert.Equal(t, n, r.GameCount(), r.String())
	}

	r := RoundWildCard
	var seen []Round
	for r != RoundComplete {
		seen = append(seen, r)
		r = r.Next()
	}
	assert.Equal(t, Rounds(), seen)
	assert.Equal(t, RoundComplete, RoundComplete.Next())

	for _, in := range []string{"super_bowl", "Super Bowl", "SUPER-BOWL"} {
		parsed, err := ParseRound(in)
		require.NoError(t, err, in)
		assert.Equal(t, RoundSuperBowl, parsed)
	}
	_, err := ParseRound("preseason")
	assert.Error(t, err)

	_, err = Round(9).MarshalText()
	assert.Error(t, err)
}
