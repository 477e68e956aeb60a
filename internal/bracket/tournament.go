package bracket

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sirupsen/logrus"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameCompleted      = errors.New("game already completed")
	ErrInvalidWinner      = errors.New("winner is not a participant in the game")
	ErrRoundIncomplete    = errors.New("round is not complete")
	ErrResultCount        = errors.New("result count does not match the round's game count")
	ErrTournamentComplete = errors.New("tournament is complete")
	ErrInvalidScore       = errors.New("invalid score")
	ErrInvalidSeeding     = errors.New("invalid seeding")
	ErrInvalidTransition  = errors.New("invalid game status transition")
)

// Tournament drives one postseason from the wild card round to a champion.
// All methods are safe for concurrent use; mutations are serialized.
type Tournament struct {
	mu     sync.Mutex
	state  BracketState
	logger *logrus.Logger
}

// NewTournament builds the wild card round from a computed seeding
func NewTournament(s *seeding.PlayoffSeeding, logger *logrus.Logger) (*Tournament, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeeding, err)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	seeds := make(map[string]seeding.PlayoffSeed, 2*seeding.SeedsPerConference)
	for _, conf := range league.Conferences() {
		for _, seed := range s.Seeds(conf) {
			seeds[seed.TeamID] = seed
		}
	}

	wc := &RoundBracket{Round: RoundWildCard}
	for _, m := range s.Matchups {
		wc.Games = append(wc.Games, PlayoffGame{
			ID:         gameID(s.Season, RoundWildCard, m.Conference, m.HigherSeed.Seed, m.LowerSeed.Seed),
			Round:      RoundWildCard,
			Conference: m.Conference,
			HomeTeamID: m.HomeTeamID,
			AwayTeamID: m.AwayTeamID,
			HomeSeed:   m.HigherSeed.Seed,
			AwaySeed:   m.LowerSeed.Seed,
			Week:       RoundWildCard.Week(),
			Status:     StatusScheduled,
		})
	}

	t := &Tournament{
		state: BracketState{
			Season:       s.Season,
			Seeds:        seeds,
			Rounds:       []*RoundBracket{wc},
			CurrentRound: RoundWildCard,
		},
		logger: logger,
	}

	logger.WithFields(logrus.Fields{
		"season": s.Season,
		"games":  len(wc.Games),
	}).Info("Tournament created")

	return t, nil
}

// Season returns the season the bracket was seeded from
func (t *Tournament) Season() int {
	return t.state.Season
}

// CurrentRound returns the round currently being played
func (t *Tournament) CurrentRound() Round {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.CurrentRound
}

// IsComplete reports whether a champion has been decided
func (t *Tournament) IsComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Complete
}

// Game returns a copy of a game in any round
func (t *Tournament) Game(id string) (PlayoffGame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.state.game(id)
	if !ok {
		return PlayoffGame{}, false
	}
	return *g, true
}

// Games returns copies of a round's games, nil if the round has not started
func (t *Tournament) Games(r Round) []PlayoffGame {
	t.mu.Lock()
	defer t.mu.Unlock()
	rb, ok := t.state.round(r)
	if !ok {
		return nil
	}
	return rb.clone().Games
}

// RecordResult records the final score of a game in the current round. A
// Super Bowl result completes the tournament.
func (t *Tournament) RecordResult(gameID, winnerID string, homeScore, awayScore int) (PlayoffGame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, err := t.currentGame(gameID)
	if err != nil {
		return PlayoffGame{}, err
	}
	o := Outcome{GameID: gameID, WinnerID: winnerID, HomeScore: homeScore, AwayScore: awayScore}
	if err := checkOutcome(*g, o); err != nil {
		return PlayoffGame{}, err
	}

	g.apply(o)
	t.logger.WithFields(logrus.Fields{
		"season":     t.state.Season,
		"game_id":    g.ID,
		"winner":     g.WinnerID,
		"home_score": g.HomeScore,
		"away_score": g.AwayScore,
	}).Info("Recorded game result")

	if g.Round == RoundSuperBowl {
		t.finalize(*g)
	}
	return *g, nil
}

// StartGame marks a scheduled game as in progress
func (t *Tournament) StartGame(gameID string) error {
	return t.transition(gameID, func(g *PlayoffGame) error {
		if g.Status != StatusScheduled {
			return fmt.Errorf("%w: cannot start %s from %s", ErrInvalidTransition, g.ID, g.Status)
		}
		g.Status = StatusInProgress
		return nil
	})
}

// CancelGame cancels a game that has not been decided
func (t *Tournament) CancelGame(gameID string) error {
	return t.transition(gameID, func(g *PlayoffGame) error {
		if g.Status == StatusCancelled {
			return fmt.Errorf("%w: %s is already cancelled", ErrInvalidTransition, g.ID)
		}
		g.Status = StatusCancelled
		return nil
	})
}

// RescheduleGame sets a new kickoff time and returns the game to scheduled
func (t *Tournament) RescheduleGame(gameID string, at time.Time) error {
	return t.transition(gameID, func(g *PlayoffGame) error {
		if at.IsZero() {
			return fmt.Errorf("%w: reschedule of %s needs a time", ErrInvalidTransition, g.ID)
		}
		g.ScheduledAt = &at
		g.Status = StatusScheduled
		return nil
	})
}

func (t *Tournament) transition(gameID string, fn func(g *PlayoffGame) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, err := t.currentGame(gameID)
	if err != nil {
		return err
	}
	if g.Completed() {
		return fmt.Errorf("%w: %s", ErrGameCompleted, g.ID)
	}
	before := g.Status
	if err := fn(g); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{
		"game_id": g.ID,
		"from":    before.String(),
		"to":      g.Status.String(),
	}).Debug("Game status changed")
	return nil
}

// Advance closes the current round and builds the next one with reseeded
// pairings. It fails without changes while any game is undecided.
func (t *Tournament) Advance() (Round, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advance()
}

// CompleteRound applies a full set of results for the current round and
// advances. The number of results must equal the round's game count and
// every result is checked before any is applied. Results matching games
// already recorded are accepted unchanged.
func (t *Tournament) CompleteRound(results []Outcome) (Round, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Complete {
		return RoundComplete, ErrTournamentComplete
	}
	current := t.state.CurrentRound
	rb, ok := t.state.round(current)
	if !ok {
		return current, fmt.Errorf("%w: no games for %s", ErrRoundIncomplete, current)
	}
	if len(results) != current.GameCount() {
		return current, fmt.Errorf("%w: %s expects %d results, got %d", ErrResultCount, current, current.GameCount(), len(results))
	}

	seen := make(map[string]bool, len(results))
	pending := make([]Outcome, 0, len(results))
	for _, o := range results {
		if seen[o.GameID] {
			return current, fmt.Errorf("%w: duplicate result for %s", ErrResultCount, o.GameID)
		}
		seen[o.GameID] = true

		g, ok := rb.game(o.GameID)
		if !ok {
			return current, fmt.Errorf("%w: %s is not in the %s round", ErrGameNotFound, o.GameID, current)
		}
		if g.Completed() && g.WinnerID == o.WinnerID && g.HomeScore == o.HomeScore && g.AwayScore == o.AwayScore {
			continue
		}
		if err := checkOutcome(*g, o); err != nil {
			return current, err
		}
		pending = append(pending, o)
	}

	for _, o := range pending {
		g, _ := rb.game(o.GameID)
		g.apply(o)
		if g.Round == RoundSuperBowl {
			t.finalize(*g)
		}
	}
	t.logger.WithFields(logrus.Fields{
		"season":  t.state.Season,
		"round":   current.String(),
		"applied": len(pending),
	}).Info("Recorded round results")

	if t.state.Complete {
		return RoundComplete, nil
	}
	return t.advance()
}

func (t *Tournament) currentGame(gameID string) (*PlayoffGame, error) {
	if t.state.Complete {
		return nil, ErrTournamentComplete
	}
	g, ok := t.state.game(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.Round != t.state.CurrentRound && !g.Completed() {
		return nil, fmt.Errorf("%w: %s belongs to %s, current round is %s", ErrGameNotFound, gameID, g.Round, t.state.CurrentRound)
	}
	return g, nil
}

func (t *Tournament) advance() (Round, error) {
	if t.state.Complete {
		return RoundComplete, ErrTournamentComplete
	}
	current := t.state.CurrentRound
	rb, ok := t.state.round(current)
	if !ok || !rb.Complete() {
		done := 0
		if ok {
			done = rb.CompletedCount()
		}
		return current, fmt.Errorf("%w: %s has %d of %d games decided", ErrRoundIncomplete, current, done, current.GameCount())
	}

	next, err := t.reseed(rb)
	if err != nil {
		return current, err
	}
	t.state.Rounds = append(t.state.Rounds, next)
	t.state.CurrentRound = next.Round

	t.logger.WithFields(logrus.Fields{
		"season": t.state.Season,
		"from":   current.String(),
		"to":     next.Round.String(),
		"teams":  next.Participating(),
	}).Info("Advanced to next round")

	return next.Round, nil
}

// reseed pairs the survivors of a completed round by original seed
func (t *Tournament) reseed(rb *RoundBracket) (*RoundBracket, error) {
	nextRound := rb.Round.Next()
	if nextRound == RoundComplete {
		return nil, ErrTournamentComplete
	}

	survivors := make(map[league.Conference][]string)
	for _, id := range rb.Advancing() {
		conf := t.state.conference(id)
		survivors[conf] = append(survivors[conf], id)
	}
	for _, conf := range league.Conferences() {
		sort.Slice(survivors[conf], func(i, j int) bool {
			return t.state.seed(survivors[conf][i]) < t.state.seed(survivors[conf][j])
		})
	}

	next := &RoundBracket{Round: nextRound}
	switch nextRound {
	case RoundDivisional:
		for _, conf := range league.Conferences() {
			teams := survivors[conf]
			if len(teams) != 3 {
				return nil, fmt.Errorf("%w: %s has %d wild card winners, expected 3", ErrInvalidSeeding, conf, len(teams))
			}
			top, ok := t.topSeed(conf)
			if !ok {
				return nil, fmt.Errorf("%w: %s has no top seed", ErrInvalidSeeding, conf)
			}
			// The top seed hosts the lowest surviving seed; the other two meet
			next.Games = append(next.Games,
				t.pair(nextRound, conf, top, teams[2]),
				t.pair(nextRound, conf, teams[0], teams[1]),
			)
		}
	case RoundConferenceChampionship:
		for _, conf := range league.Conferences() {
			teams := survivors[conf]
			if len(teams) != 2 {
				return nil, fmt.Errorf("%w: %s has %d divisional winners, expected 2", ErrInvalidSeeding, conf, len(teams))
			}
			next.Games = append(next.Games, t.pair(nextRound, conf, teams[0], teams[1]))
		}
	case RoundSuperBowl:
		afc, nfc := survivors[league.AFC], survivors[league.NFC]
		if len(afc) != 1 || len(nfc) != 1 {
			return nil, fmt.Errorf("%w: expected one champion per conference, got %d AFC and %d NFC", ErrInvalidSeeding, len(afc), len(nfc))
		}
		next.Games = append(next.Games, PlayoffGame{
			ID:          gameID(t.state.Season, RoundSuperBowl, "", 0, 0),
			Round:       RoundSuperBowl,
			HomeTeamID:  afc[0],
			AwayTeamID:  nfc[0],
			HomeSeed:    t.state.seed(afc[0]),
			AwaySeed:    t.state.seed(nfc[0]),
			NeutralSite: true,
			Week:        RoundSuperBowl.Week(),
			Status:      StatusScheduled,
		})
	}

	if len(next.Games) != nextRound.GameCount() {
		return nil, fmt.Errorf("%w: built %d games for %s", ErrInvalidSeeding, len(next.Games), nextRound)
	}
	return next, nil
}

func (t *Tournament) topSeed(conf league.Conference) (string, bool) {
	for id, seed := range t.state.Seeds {
		if seed.Conference == conf && seed.Seed == 1 {
			return id, true
		}
	}
	return "", false
}

// pair hosts the higher original seed
func (t *Tournament) pair(r Round, conf league.Conference, a, b string) PlayoffGame {
	if t.state.seed(b) < t.state.seed(a) {
		a, b = b, a
	}
	homeSeed, awaySeed := t.state.seed(a), t.state.seed(b)
	return PlayoffGame{
		ID:         gameID(t.state.Season, r, conf, homeSeed, awaySeed),
		Round:      r,
		Conference: conf,
		HomeTeamID: a,
		AwayTeamID: b,
		HomeSeed:   homeSeed,
		AwaySeed:   awaySeed,
		Week:       r.Week(),
		Status:     StatusScheduled,
	}
}

func (t *Tournament) finalize(sb PlayoffGame) {
	for _, id := range sb.Participants() {
		switch t.state.conference(id) {
		case league.AFC:
			t.state.AFCChampion = id
		case league.NFC:
			t.state.NFCChampion = id
		}
	}
	t.state.SuperBowlWinner = sb.WinnerID
	t.state.Complete = true
	t.state.CurrentRound = RoundComplete

	t.logger.WithFields(logrus.Fields{
		"season":       t.state.Season,
		"champion":     sb.WinnerID,
		"afc_champion": t.state.AFCChampion,
		"nfc_champion": t.state.NFCChampion,
	}).Info("Tournament complete")
}
