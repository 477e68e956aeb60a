package seeding

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/strength"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/tiebreaker"
	"github.com/sirupsen/logrus"
)

const winPctEpsilon = 1e-9

// Option configures a Calculator
type Option func(*Calculator)

// WithClock overrides the clock used to stamp computed seedings
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithStrengthCache memoizes strength reports per season. Callers must
// Forget a season whenever its standings change.
func WithStrengthCache(cache *strength.Cache) Option {
	return func(c *Calculator) {
		c.cache = cache
	}
}

// Calculator produces the seeded postseason field for a season
type Calculator struct {
	strength *strength.Calculator
	cache    *strength.Cache
	engine   *tiebreaker.Engine
	logger   *logrus.Logger
	now      func() time.Time
}

// NewCalculator creates a seeding calculator from its collaborators
func NewCalculator(strengthCalc *strength.Calculator, engine *tiebreaker.Engine, logger *logrus.Logger, opts ...Option) *Calculator {
	c := &Calculator{
		strength: strengthCalc,
		engine:   engine,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Standings validates the input and assembles the context tiebreakers read
// from: records, strength metrics and a merged head-to-head ledger. The
// returned warnings describe any data that had to be defaulted.
func (c *Calculator) Standings(input *league.PlayoffSeedingInput) (*tiebreaker.Standings, []string, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	var report strength.Report
	if c.cache != nil {
		report = c.cache.Report(input.Season, input.Teams, input.Games)
	} else {
		report = c.strength.Calculate(input.Teams, input.Games)
	}
	warnings := append([]string(nil), report.Warnings...)

	ledger, err := league.NewLedger(input.HeadToHead)
	if err != nil {
		c.Forget(input.Season)
		return nil, nil, fmt.Errorf("%w: %v", league.ErrInvalidInput, err)
	}
	// Explicit series win over per-team tallies, which win over the game log
	ledger.Merge(league.LedgerFromRecords(input.Teams))
	ledger.Merge(league.LedgerFromGames(input.Games))
	if ledger.Len() == 0 {
		msg := "no head-to-head data available, head-to-head rules will fall through"
		warnings = append(warnings, msg)
		c.logger.WithField("season", input.Season).Warn(msg)
	}

	return &tiebreaker.Standings{
		Records: input.Teams,
		Metrics: report.Metrics,
		Ledger:  ledger,
		Games:   input.Games,
	}, warnings, nil
}

// Forget drops any memoized strength report for the season. Standings and
// Calculate also call it on any error after the report is memoized.
func (c *Calculator) Forget(season int) {
	if c.cache != nil {
		c.cache.Invalidate(season)
	}
}

// Calculate seeds both conferences and generates the wild card matchups
func (c *Calculator) Calculate(input *league.PlayoffSeedingInput) (*PlayoffSeeding, error) {
	st, warnings, err := c.Standings(input)
	if err != nil {
		return nil, err
	}

	result := &PlayoffSeeding{
		Season:     input.Season,
		ComputedAt: c.now(),
		Warnings:   warnings,
	}

	for _, conf := range league.Conferences() {
		seeds, steps, err := c.seedConference(conf, st)
		if err != nil {
			c.Forget(input.Season)
			return nil, fmt.Errorf("seeding %s: %w", conf, err)
		}
		result.Tiebreakers = append(result.Tiebreakers, steps...)

		switch conf {
		case league.AFC:
			result.AFC = seeds
		case league.NFC:
			result.NFC = seeds
		}
		result.Matchups = append(result.Matchups, wildCardMatchups(seeds)...)
	}

	// An empty ledger is already reported once by Standings
	if st.Ledger.Len() > 0 {
		result.Warnings = append(result.Warnings, tiebreaker.StepNotes(result.Tiebreakers)...)
	}

	if err := result.Validate(); err != nil {
		c.Forget(input.Season)
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"season":      input.Season,
		"afc_top":     result.AFC[0].TeamID,
		"nfc_top":     result.NFC[0].TeamID,
		"tiebreakers": len(result.Tiebreakers),
		"warnings":    len(result.Warnings),
	}).Info("Computed playoff seeding")

	return result, nil
}

func (c *Calculator) seedConference(conf league.Conference, st *tiebreaker.Standings) ([]PlayoffSeed, []tiebreaker.Result, error) {
	var teams []league.TeamRecord
	for _, t := range st.Records {
		if t.Conference == conf {
			teams = append(teams, t)
		}
	}
	sortByWinPct(teams)

	if len(teams) < SeedsPerConference {
		return nil, nil, fmt.Errorf("%w: %d teams", ErrInsufficientTeams, len(teams))
	}

	divisions := make(map[string][]league.TeamRecord)
	for _, t := range teams {
		divisions[t.Division] = append(divisions[t.Division], t)
	}
	if len(divisions) != DivisionsPerConference {
		return nil, nil, fmt.Errorf("%w: found %d divisions", ErrDivisionCount, len(divisions))
	}

	names := make([]string, 0, len(divisions))
	for name := range divisions {
		names = append(names, name)
	}
	sort.Strings(names)

	var steps []tiebreaker.Result

	// Division winners: best win percentage, ties by the division cascade
	winners := make([]league.TeamRecord, 0, DivisionsPerConference)
	isWinner := make(map[string]bool, DivisionsPerConference)
	for _, name := range names {
		leaders := leadingGroup(divisions[name])
		winner := leaders[0]
		if len(leaders) > 1 {
			res := c.engine.BreakDivisionTie(leaders, st)
			steps = append(steps, res.Steps...)
			winner = res.Order[0]
		}
		winners = append(winners, winner)
		isWinner[winner.TeamID] = true

		c.logger.WithFields(logrus.Fields{
			"conference": conf,
			"division":   name,
			"winner":     winner.TeamID,
			"tied":       len(leaders),
		}).Debug("Division winner determined")
	}

	// Seeds 1-4 reuse the division cascade for ties among division winners
	ordered, s := c.orderGroups(winners, st, func(group []league.TeamRecord) tiebreaker.Resolution {
		return c.engine.BreakDivisionTie(group, st)
	})
	steps = append(steps, s...)

	// Seeds 5-7
	var rest []league.TeamRecord
	for _, t := range teams {
		if !isWinner[t.TeamID] {
			rest = append(rest, t)
		}
	}
	wild, s := c.selectWildCards(rest, st, WildCardsPerConference)
	steps = append(steps, s...)
	if len(wild) != WildCardsPerConference {
		return nil, nil, fmt.Errorf("%w: only %d wild cards available", ErrInsufficientTeams, len(wild))
	}

	seeds := make([]PlayoffSeed, 0, SeedsPerConference)
	for i, t := range append(ordered, wild...) {
		seeds = append(seeds, newSeed(i+1, t, i < DivisionsPerConference, st))
	}
	return seeds, steps, nil
}

// orderGroups sorts by win percentage and fully resolves each tied group
func (c *Calculator) orderGroups(teams []league.TeamRecord, st *tiebreaker.Standings, breakTie func([]league.TeamRecord) tiebreaker.Resolution) ([]league.TeamRecord, []tiebreaker.Result) {
	remaining := make([]league.TeamRecord, len(teams))
	copy(remaining, teams)
	sortByWinPct(remaining)

	var ordered []league.TeamRecord
	var steps []tiebreaker.Result
	for len(remaining) > 0 {
		group := leadingGroup(remaining)
		remaining = remaining[len(group):]
		if len(group) == 1 {
			ordered = append(ordered, group[0])
			continue
		}
		res := breakTie(group)
		steps = append(steps, res.Steps...)
		ordered = append(ordered, res.Order...)
	}
	return ordered, steps
}

// selectWildCards takes the best remaining win-percentage group, resolves it
// and consumes as many seeds as are still open
func (c *Calculator) selectWildCards(teams []league.TeamRecord, st *tiebreaker.Standings, slots int) ([]league.TeamRecord, []tiebreaker.Result) {
	remaining := make([]league.TeamRecord, len(teams))
	copy(remaining, teams)
	sortByWinPct(remaining)

	var picked []league.TeamRecord
	var steps []tiebreaker.Result
	for len(picked) < slots && len(remaining) > 0 {
		group := leadingGroup(remaining)
		remaining = remaining[len(group):]
		open := slots - len(picked)

		if len(group) == 1 {
			picked = append(picked, group[0])
			continue
		}

		res := c.engine.RankWildCards(group, st, open)
		steps = append(steps, res.Steps...)
		picked = append(picked, res.Order...)
	}
	return picked, steps
}

func wildCardMatchups(seeds []PlayoffSeed) []WildCardMatchup {
	return []WildCardMatchup{
		NewWildCardMatchup(seeds[1], seeds[6]),
		NewWildCardMatchup(seeds[2], seeds[5]),
		NewWildCardMatchup(seeds[3], seeds[4]),
	}
}

func newSeed(seed int, t league.TeamRecord, divisionWinner bool, st *tiebreaker.Standings) PlayoffSeed {
	m := st.Metrics[t.TeamID]
	return PlayoffSeed{
		Seed:           seed,
		TeamID:         t.TeamID,
		Name:           t.Name,
		Conference:     t.Conference,
		Division:       t.Division,
		DivisionWinner: divisionWinner,
		Record:         t.Overall,
		WinPercentage:  t.WinPercentage(),
		SOV:            m.SOV,
		SOS:            m.SOS,
	}
}

// sortByWinPct orders by win percentage descending, then team id
func sortByWinPct(teams []league.TeamRecord) {
	sort.SliceStable(teams, func(i, j int) bool {
		pi, pj := teams[i].WinPercentage(), teams[j].WinPercentage()
		if math.Abs(pi-pj) > winPctEpsilon {
			return pi > pj
		}
		return teams[i].TeamID < teams[j].TeamID
	})
}

// leadingGroup returns the prefix of a sorted slice sharing the top win percentage
func leadingGroup(sorted []league.TeamRecord) []league.TeamRecord {
	if len(sorted) == 0 {
		return nil
	}
	sortByWinPct(sorted)
	top := sorted[0].WinPercentage()
	n := 1
	for n < len(sorted) && math.Abs(sorted[n].WinPercentage()-top) <= winPctEpsilon {
		n++
	}
	return sorted[:n]
}
