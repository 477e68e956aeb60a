package strength

import (
	"fmt"
	"sort"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sirupsen/logrus"
)

const (
	// NeutralSOV is used when a team's victories cannot be evaluated
	NeutralSOV = 0.0
	// NeutralSOS is used when the game log is missing entirely
	NeutralSOS = 0.5
)

// Metrics holds the derived strength figures for a single team
type Metrics struct {
	TeamID                 string                   `json:"team_id"`
	SOV                    float64                  `json:"sov"`
	SOS                    float64                  `json:"sos"`
	Beaten                 []string                 `json:"beaten,omitempty"`
	Played                 []string                 `json:"played,omitempty"`
	Versus                 map[string]league.Record `json:"versus,omitempty"`
	NetPoints              int                      `json:"net_points"`
	ConferenceNetPoints    int                      `json:"conference_net_points"`
	CombinedRankConference int                      `json:"combined_rank_conference"`
	CombinedRankAll        int                      `json:"combined_rank_all"`
}

// Report is the output of a strength calculation
type Report struct {
	Metrics  map[string]Metrics `json:"metrics"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Calculator derives strength of victory, strength of schedule and point rankings
type Calculator struct {
	logger *logrus.Logger
}

// NewCalculator creates a new strength calculator
func NewCalculator(logger *logrus.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Calculate computes metrics for every team. It never fails: missing or
// inconsistent data is reported as warnings and neutral values are used.
func (c *Calculator) Calculate(records map[string]league.TeamRecord, games []league.GameResult) Report {
	report := Report{Metrics: make(map[string]Metrics, len(records))}

	for id, record := range records {
		report.Metrics[id] = Metrics{
			TeamID:    id,
			Versus:    make(map[string]league.Record),
			NetPoints: record.NetPoints(),
		}
	}

	if len(games) == 0 {
		report.warn(c.logger, "game log missing, strength of victory and schedule use precomputed or neutral values")
		for id, record := range records {
			m := report.Metrics[id]
			m.SOV = NeutralSOV
			if record.SOV > 0 {
				m.SOV = clamp(record.SOV)
			}
			m.SOS = NeutralSOS
			if record.SOS > 0 {
				m.SOS = clamp(record.SOS)
			}
			report.Metrics[id] = m
		}
		c.rank(records, report.Metrics)
		return report
	}

	// Build beaten/played lists and per-opponent tallies from the game log
	for i, g := range games {
		home, homeOK := report.Metrics[g.HomeTeamID]
		away, awayOK := report.Metrics[g.AwayTeamID]
		if !homeOK || !awayOK {
			report.warn(c.logger, fmt.Sprintf("game %d (%s vs %s) references a team without a record, skipped", i, g.HomeTeamID, g.AwayTeamID))
			continue
		}

		home.Played = append(home.Played, g.AwayTeamID)
		away.Played = append(away.Played, g.HomeTeamID)

		homeTally := home.Versus[g.AwayTeamID]
		awayTally := away.Versus[g.HomeTeamID]
		switch g.Winner() {
		case g.HomeTeamID:
			home.Beaten = append(home.Beaten, g.AwayTeamID)
			homeTally.Wins++
			awayTally.Losses++
		case g.AwayTeamID:
			away.Beaten = append(away.Beaten, g.HomeTeamID)
			awayTally.Wins++
			homeTally.Losses++
		default:
			homeTally.Ties++
			awayTally.Ties++
		}
		home.Versus[g.AwayTeamID] = homeTally
		away.Versus[g.HomeTeamID] = awayTally

		if records[g.HomeTeamID].Conference == records[g.AwayTeamID].Conference {
			home.ConferenceNetPoints += g.HomeScore - g.AwayScore
			away.ConferenceNetPoints += g.AwayScore - g.HomeScore
		}

		report.Metrics[g.HomeTeamID] = home
		report.Metrics[g.AwayTeamID] = away
	}

	for id, m := range report.Metrics {
		m.SOV = combinedWinPercentage(records, m.Beaten)
		m.SOS = combinedWinPercentage(records, m.Played)
		report.Metrics[id] = m
	}

	c.rank(records, report.Metrics)

	c.logger.WithFields(logrus.Fields{
		"teams":    len(records),
		"games":    len(games),
		"warnings": len(report.Warnings),
	}).Debug("Calculated strength metrics")

	return report
}

// combinedWinPercentage is (sum of wins + 0.5 ties) / (sum of games) over the
// opponents listed, counting repeated opponents once per appearance.
func combinedWinPercentage(records map[string]league.TeamRecord, opponents []string) float64 {
	var won float64
	var games int
	for _, id := range opponents {
		r := records[id].Overall
		won += float64(r.Wins) + 0.5*float64(r.Ties)
		games += r.Games()
	}
	if games == 0 {
		return 0
	}
	return clamp(won / float64(games))
}

// rank fills the combined point rankings for the conference and league scopes
func (c *Calculator) rank(records map[string]league.TeamRecord, metrics map[string]Metrics) {
	all := make([]league.TeamRecord, 0, len(records))
	byConference := make(map[league.Conference][]league.TeamRecord)
	for _, r := range records {
		all = append(all, r)
		byConference[r.Conference] = append(byConference[r.Conference], r)
	}

	for id, rank := range CombinedRanking(all) {
		m := metrics[id]
		m.CombinedRankAll = rank
		metrics[id] = m
	}
	for _, teams := range byConference {
		for id, rank := range CombinedRanking(teams) {
			m := metrics[id]
			m.CombinedRankConference = rank
			metrics[id] = m
		}
	}
}

// CombinedRanking returns rank-by-points-scored plus rank-by-points-allowed for
// each team. Both ranks are 1-based and tied values share the better rank.
func CombinedRanking(teams []league.TeamRecord) map[string]int {
	scored := competitionRanks(teams, func(t league.TeamRecord) int { return -t.PointsFor })
	allowed := competitionRanks(teams, func(t league.TeamRecord) int { return t.PointsAgainst })

	combined := make(map[string]int, len(teams))
	for _, t := range teams {
		combined[t.TeamID] = scored[t.TeamID] + allowed[t.TeamID]
	}
	return combined
}

// competitionRanks ranks ascending by key; equal keys share a rank ("1224")
func competitionRanks(teams []league.TeamRecord, key func(league.TeamRecord) int) map[string]int {
	sorted := make([]league.TeamRecord, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki < kj
		}
		return sorted[i].TeamID < sorted[j].TeamID
	})

	ranks := make(map[string]int, len(sorted))
	for i, t := range sorted {
		if i > 0 && key(t) == key(sorted[i-1]) {
			ranks[t.TeamID] = ranks[sorted[i-1].TeamID]
			continue
		}
		ranks[t.TeamID] = i + 1
	}
	return ranks
}

// HeadToHead returns the wins of a and b in games between exactly those two teams
func HeadToHead(games []league.GameResult, a, b string) (aWins, bWins int) {
	for _, g := range games {
		if !g.Involves(a) || !g.Involves(b) {
			continue
		}
		switch g.Winner() {
		case a:
			aWins++
		case b:
			bWins++
		}
	}
	return aWins, bWins
}

func (r *Report) warn(logger *logrus.Logger, msg string) {
	r.Warnings = append(r.Warnings, msg)
	logger.Warn(msg)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
