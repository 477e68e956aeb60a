package tiebreaker

import (
	"math/rand"
	"testing"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/strength"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRandom always picks the same index modulo n
type fixedRandom struct {
	idx   int
	calls int
}

func (f *fixedRandom) Intn(n int) int {
	f.calls++
	return f.idx % n
}

func team(id string, division, conference league.Record) league.TeamRecord {
	return league.TeamRecord{
		TeamID:           id,
		Conference:       league.AFC,
		Division:         "AFC East",
		Overall:          league.Record{Wins: 11, Losses: 6},
		DivisionRecord:   division,
		ConferenceRecord: conference,
	}
}

func standings(ledger map[string]string, metrics map[string]strength.Metrics) *Standings {
	l, err := league.NewLedger(ledger)
	if err != nil {
		panic(err)
	}
	return &Standings{Ledger: l, Metrics: metrics}
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(append([]Option{WithLogger(logger), WithRandom(&fixedRandom{})}, opts...)...)
}

func TestBreakDivisionTie_HeadToHeadBeatsStrength(t *testing.T) {
	engine := newEngine(t)

	a := team("BUF", league.Record{Wins: 4, Losses: 2}, league.Record{Wins: 8, Losses: 4})
	b := team("MIA", league.Record{Wins: 4, Losses: 2}, league.Record{Wins: 8, Losses: 4})
	st := standings(map[string]string{"BUF|MIA": "2-0"}, map[string]strength.Metrics{
		"BUF": {SOV: 0.40, SOS: 0.40},
		"MIA": {SOV: 0.60, SOS: 0.60},
	})

	res := engine.BreakDivisionTie([]league.TeamRecord{b, a}, st)

	assert.Equal(t, []string{"BUF", "MIA"}, res.TeamIDs())
	require.Len(t, res.Steps, 1)
	assert.Equal(t, RuleHeadToHead, res.Steps[0].Rule)
	assert.Equal(t, "BUF", res.Steps[0].Winner)
	assert.Equal(t, []string{"MIA"}, res.Steps[0].Eliminated)
	assert.Equal(t, []string{"BUF", "MIA"}, res.Steps[0].Tied)
}

func TestBreakDivisionTie_EvenSeriesFallsThrough(t *testing.T) {
	engine := newEngine(t)

	a := team("DAL", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 7, Losses: 5})
	b := team("PHI", league.Record{Wins: 5, Losses: 1}, league.Record{Wins: 7, Losses: 5})
	st := standings(map[string]string{"DAL|PHI": "1-1"}, nil)

	res := engine.BreakDivisionTie([]league.TeamRecord{a, b}, st)

	assert.Equal(t, []string{"PHI", "DAL"}, res.TeamIDs())
	require.Len(t, res.Steps, 1)
	assert.Equal(t, RuleDivisionRecord, res.Steps[0].Rule)
}

func TestBreakDivisionTie_MissingSeriesFallsThrough(t *testing.T) {
	engine := newEngine(t)

	a := team("DAL", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 9, Losses: 3})
	b := team("PHI", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 7, Losses: 5})

	res := engine.BreakDivisionTie([]league.TeamRecord{a, b}, standings(nil, nil))

	assert.Equal(t, []string{"DAL", "PHI"}, res.TeamIDs())
	assert.Equal(t, RuleConferenceRecord, res.Steps[0].Rule)
	require.Len(t, res.Steps[0].Notes, 1)
	assert.Contains(t, res.Steps[0].Notes[0], "no head-to-head series between DAL and PHI")
	assert.Equal(t, res.Steps[0].Notes, res.Notes())
}

func TestMissingSeriesNotedOnlyForPairs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	engine := New(WithLogger(logger), WithRandom(&fixedRandom{}))

	a := team("NYJ", league.Record{Wins: 2, Losses: 4}, league.Record{Wins: 6, Losses: 6})
	b := team("NE", league.Record{Wins: 2, Losses: 4}, league.Record{Wins: 5, Losses: 7})
	c := team("MIA", league.Record{Wins: 2, Losses: 4}, league.Record{Wins: 4, Losses: 8})
	st := standings(map[string]string{"MIA|NE": "1-1"}, nil)

	res := engine.BreakWildCardTie([]league.TeamRecord{a, b, c}, st)

	assert.Equal(t, []string{"NYJ", "NE", "MIA"}, res.TeamIDs())
	require.Len(t, res.Steps, 2)
	assert.Empty(t, res.Notes(), "three-team groups skip the pairwise check and MIA|NE has a series")

	missing := engine.BreakWildCardTie([]league.TeamRecord{a, b}, st)
	require.Len(t, missing.Notes(), 1)
	assert.Contains(t, missing.Notes()[0], "NE and NYJ")
	assert.Contains(t, missing.Notes()[0], RuleHeadToHeadSweep.String())

	warned := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned++
		}
	}
	assert.Equal(t, 1, warned)
}

func TestBreakDivisionTie_PeelsOffAndRestartsCascade(t *testing.T) {
	engine := newEngine(t)

	// KC wins on division record. LV has the better conference record than
	// DEN, but once the cascade restarts DEN's head-to-head win settles it.
	kc := team("KC", league.Record{Wins: 5, Losses: 1}, league.Record{Wins: 8, Losses: 4})
	lv := team("LV", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 9, Losses: 3})
	den := team("DEN", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 7, Losses: 5})
	st := standings(map[string]string{"DEN|LV": "2-0", "KC|LV": "1-1", "DEN|KC": "0-2"}, nil)

	res := engine.BreakDivisionTie([]league.TeamRecord{lv, den, kc}, st)

	assert.Equal(t, []string{"KC", "DEN", "LV"}, res.TeamIDs())
	require.Len(t, res.Steps, 2)
	assert.Equal(t, RuleDivisionRecord, res.Steps[0].Rule)
	assert.Equal(t, []string{"DEN", "LV"}, res.Steps[0].Eliminated)
	assert.Equal(t, RuleHeadToHead, res.Steps[1].Rule)
	assert.Equal(t, "DEN", res.Steps[1].Winner)
}

func TestBreakDivisionTie_ThreeTeamHeadToHeadIsNotDecisiveByDefault(t *testing.T) {
	a := team("A", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 6, Losses: 6})
	b := team("B", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 6, Losses: 6})
	c := team("C", league.Record{Wins: 3, Losses: 3}, league.Record{Wins: 6, Losses: 6})
	st := standings(map[string]string{"A|B": "2-0", "A|C": "2-0", "B|C": "1-1"}, map[string]strength.Metrics{
		"A": {SOV: 0.3}, "B": {SOV: 0.5}, "C": {SOV: 0.4},
	})

	baseline := newEngine(t).BreakDivisionTie([]league.TeamRecord{a, b, c}, st)
	assert.Equal(t, RuleStrengthOfVictory, baseline.Steps[0].Rule)
	assert.Equal(t, "B", baseline.Steps[0].Winner)

	extended := newEngine(t, WithExtendedRules(true)).BreakDivisionTie([]league.TeamRecord{a, b, c}, st)
	assert.Equal(t, RuleHeadToHead, extended.Steps[0].Rule)
	assert.Equal(t, "A", extended.Steps[0].Winner)
}

func TestBreakWildCardTie_SweepRequiresExtendedRules(t *testing.T) {
	a := team("A", league.Record{}, league.Record{Wins: 6, Losses: 6})
	b := team("B", league.Record{}, league.Record{Wins: 7, Losses: 5})
	c := team("C", league.Record{}, league.Record{Wins: 6, Losses: 6})
	st := standings(map[string]string{"A|B": "1-0", "A|C": "1-0"}, nil)

	baseline := newEngine(t).BreakWildCardTie([]league.TeamRecord{a, b, c}, st)
	assert.Equal(t, RuleConferenceRecord, baseline.Steps[0].Rule)
	assert.Equal(t, "B", baseline.Steps[0].Winner)

	extended := newEngine(t, WithExtendedRules(true)).BreakWildCardTie([]league.TeamRecord{a, b, c}, st)
	assert.Equal(t, RuleHeadToHeadSweep, extended.Steps[0].Rule)
	assert.Equal(t, []string{"A", "B", "C"}, extended.TeamIDs())
}

func TestBreakWildCardTie_CombinedRankingOnlyWhenExtended(t *testing.T) {
	a := team("A", league.Record{}, league.Record{Wins: 6, Losses: 6})
	b := team("B", league.Record{}, league.Record{Wins: 6, Losses: 6})
	b.PointsFor = 10
	metrics := map[string]strength.Metrics{
		"A": {CombinedRankConference: 4},
		"B": {CombinedRankConference: 9},
	}

	baseline := newEngine(t).BreakWildCardTie([]league.TeamRecord{a, b}, standings(nil, metrics))
	assert.Equal(t, RuleNetPointsAll, baseline.Steps[0].Rule)
	assert.Equal(t, "B", baseline.Steps[0].Winner)

	extended := newEngine(t, WithExtendedRules(true)).BreakWildCardTie([]league.TeamRecord{a, b}, standings(nil, metrics))
	assert.Equal(t, RuleCombinedRankingConference, extended.Steps[0].Rule)
	assert.Equal(t, "A", extended.Steps[0].Winner)
}

func TestBreakWildCardTie_CommonGamesMinimum(t *testing.T) {
	a := team("A", league.Record{}, league.Record{Wins: 6, Losses: 6})
	b := team("B", league.Record{}, league.Record{Wins: 6, Losses: 6})
	metrics := map[string]strength.Metrics{
		"A": {SOV: 0.1, Versus: map[string]league.Record{
			"X": {Wins: 1}, "Y": {Losses: 1}, "Z": {Wins: 1}, "W": {Wins: 1},
		}},
		"B": {SOV: 0.9, Versus: map[string]league.Record{
			"X": {Losses: 1}, "Y": {Losses: 1}, "Z": {Wins: 1}, "W": {Wins: 1},
		}},
	}
	engine := newEngine(t, WithExtendedRules(true))

	res := engine.BreakWildCardTie([]league.TeamRecord{a, b}, standings(nil, metrics))
	assert.Equal(t, RuleCommonGames, res.Steps[0].Rule)
	assert.Equal(t, "A", res.Steps[0].Winner)

	// Fewer than four common games: the rule does not apply
	delete(metrics["B"].Versus, "W")
	res = engine.BreakWildCardTie([]league.TeamRecord{a, b}, standings(nil, metrics))
	assert.Equal(t, RuleStrengthOfVictory, res.Steps[0].Rule)
	assert.Equal(t, "B", res.Steps[0].Winner)
}

func TestCoinFlipUsesInjectedRandom(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rng := &fixedRandom{idx: 1}
	engine := New(WithLogger(logger), WithRandom(rng))

	a := team("A", league.Record{}, league.Record{})
	b := team("B", league.Record{}, league.Record{})
	c := team("C", league.Record{}, league.Record{})

	res := engine.BreakDivisionTie([]league.TeamRecord{c, a, b}, standings(nil, nil))

	// sorted: A B C -> index 1 = B; then A C -> index 1 = C
	assert.Equal(t, []string{"B", "C", "A"}, res.TeamIDs())
	assert.Equal(t, 2, rng.calls)
	for _, step := range res.Steps {
		assert.Equal(t, RuleCoinFlip, step.Rule)
	}
}

func TestCascadeIsDeterministic(t *testing.T) {
	teams := []league.TeamRecord{
		team("A", league.Record{Wins: 4, Losses: 2}, league.Record{Wins: 8, Losses: 4}),
		team("B", league.Record{Wins: 4, Losses: 2}, league.Record{Wins: 9, Losses: 3}),
		team("C", league.Record{Wins: 4, Losses: 2}, league.Record{Wins: 8, Losses: 4}),
		team("D", league.Record{Wins: 2, Losses: 4}, league.Record{Wins: 7, Losses: 5}),
	}
	st := standings(map[string]string{"A|C": "0-2"}, map[string]strength.Metrics{
		"A": {SOV: 0.5}, "C": {SOV: 0.4}, "D": {SOV: 0.2}, "B": {SOV: 0.1},
	})

	engine := newEngine(t)
	first := engine.BreakDivisionTie(teams, st)

	shuffled := make([]league.TeamRecord, len(teams))
	copy(shuffled, teams)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := engine.BreakDivisionTie(shuffled, st)

	assert.Equal(t, first.TeamIDs(), second.TeamIDs())
	assert.Equal(t, first.Steps, second.Steps)
	assert.Equal(t, []string{"B", "A", "C", "D"}, first.TeamIDs())
}

func TestRankWildCards_StopsAtSlots(t *testing.T) {
	rng := &fixedRandom{}
	logger, _ := test.NewNullLogger()
	engine := New(WithLogger(logger), WithRandom(rng))

	teams := []league.TeamRecord{
		team("A", league.Record{}, league.Record{}),
		team("B", league.Record{}, league.Record{}),
		team("C", league.Record{}, league.Record{}),
		team("D", league.Record{}, league.Record{}),
	}

	res := engine.RankWildCards(teams, standings(nil, nil), 1)
	assert.Equal(t, []string{"A"}, res.TeamIDs())
	assert.Equal(t, 1, rng.calls)

	res = engine.RankWildCards(teams, standings(nil, nil), 3)
	assert.Equal(t, []string{"A", "B", "C"}, res.TeamIDs())

	res = engine.RankWildCards(teams, standings(nil, nil), 0)
	assert.Empty(t, res.Order)
}

func TestSingleTeamNeedsNoRules(t *testing.T) {
	res := newEngine(t).BreakWildCardTie([]league.TeamRecord{team("A", league.Record{}, league.Record{})}, nil)
	assert.Equal(t, []string{"A"}, res.TeamIDs())
	assert.Empty(t, res.Steps)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("wild_card")
	require.NoError(t, err)
	assert.Equal(t, KindWildCard, kind)

	kind, err = ParseKind("Division")
	require.NoError(t, err)
	assert.Equal(t, KindDivision, kind)

	_, err = ParseKind("conference")
	assert.Error(t, err)
}
