package tiebreaker

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/strength"
)

const (
	epsilon = 1e-9

	// minCommonGamesWildCard is the minimum number of common games each team
	// needs before the common games rule applies to a wild card tie
	minCommonGamesWildCard = 4
)

// Standings is the season context a cascade reads from
type Standings struct {
	Records map[string]league.TeamRecord
	Metrics map[string]strength.Metrics
	Ledger  league.Ledger
	Games   []league.GameResult
}

// DivisionRules returns the ordered division cascade
func DivisionRules() []RuleID {
	return []RuleID{
		RuleHeadToHead,
		RuleDivisionRecord,
		RuleConferenceRecord,
		RuleCommonGames,
		RuleStrengthOfVictory,
		RuleStrengthOfSchedule,
		RuleCombinedRankingConference,
		RuleCombinedRankingAll,
		RuleNetPointsConference,
		RuleNetPointsAll,
		RuleCoinFlip,
	}
}

// WildCardRules returns the ordered wild card cascade
func WildCardRules() []RuleID {
	return []RuleID{
		RuleHeadToHeadSweep,
		RuleConferenceRecord,
		RuleCommonGames,
		RuleStrengthOfVictory,
		RuleStrengthOfSchedule,
		RuleCombinedRankingConference,
		RuleCombinedRankingAll,
		RuleNetPointsConference,
		RuleNetPointsAll,
		RuleCoinFlip,
	}
}

// decision is the outcome of a decisive rule
type decision struct {
	winner      string
	explanation string
}

// apply evaluates one rule against the tied set. ok is false when the rule
// does not isolate a single winner.
func (e *Engine) apply(id RuleID, kind Kind, tied []league.TeamRecord, st *Standings) (decision, bool) {
	switch id {
	case RuleHeadToHead:
		if len(tied) == 2 {
			return twoTeamHeadToHead(tied, st)
		}
		if e.extended {
			return headToHeadMiniLeague(tied, st)
		}
		return decision{}, false
	case RuleHeadToHeadSweep:
		if len(tied) == 2 {
			return twoTeamHeadToHead(tied, st)
		}
		if e.extended {
			return headToHeadSweep(tied, st)
		}
		return decision{}, false
	case RuleDivisionRecord:
		return bestBy(tied, "division record", func(t league.TeamRecord) float64 {
			return t.DivisionRecord.WinPercentage()
		}, formatPct)
	case RuleConferenceRecord:
		return bestBy(tied, "conference record", func(t league.TeamRecord) float64 {
			return t.ConferenceRecord.WinPercentage()
		}, formatPct)
	case RuleCommonGames:
		if !e.extended {
			return decision{}, false
		}
		minGames := 0
		if kind == KindWildCard {
			minGames = minCommonGamesWildCard
		}
		return commonGames(tied, st, minGames)
	case RuleStrengthOfVictory:
		return bestBy(tied, "strength of victory", func(t league.TeamRecord) float64 {
			return st.Metrics[t.TeamID].SOV
		}, formatPct)
	case RuleStrengthOfSchedule:
		return bestBy(tied, "strength of schedule", func(t league.TeamRecord) float64 {
			return st.Metrics[t.TeamID].SOS
		}, formatPct)
	case RuleCombinedRankingConference:
		if !e.extended {
			return decision{}, false
		}
		return bestBy(tied, "combined ranking (conference)", func(t league.TeamRecord) float64 {
			return -float64(st.Metrics[t.TeamID].CombinedRankConference)
		}, formatRank)
	case RuleCombinedRankingAll:
		if !e.extended {
			return decision{}, false
		}
		return bestBy(tied, "combined ranking (all games)", func(t league.TeamRecord) float64 {
			return -float64(st.Metrics[t.TeamID].CombinedRankAll)
		}, formatRank)
	case RuleNetPointsConference:
		return bestBy(tied, "net points in conference games", func(t league.TeamRecord) float64 {
			return float64(st.Metrics[t.TeamID].ConferenceNetPoints)
		}, formatPoints)
	case RuleNetPointsAll:
		return bestBy(tied, "net points in all games", func(t league.TeamRecord) float64 {
			return float64(t.NetPoints())
		}, formatPoints)
	case RuleCoinFlip:
		return e.coinFlip(tied), true
	}
	return decision{}, false
}

// bestBy isolates the single team with the strictly highest value
func bestBy(tied []league.TeamRecord, label string, value func(league.TeamRecord) float64, format func(float64) string) (decision, bool) {
	if len(tied) == 0 {
		return decision{}, false
	}

	best, second := math.Inf(-1), math.Inf(-1)
	winner := ""
	shared := false
	for _, t := range tied {
		v := value(t)
		switch {
		case v > best+epsilon:
			second = best
			best = v
			winner = t.TeamID
			shared = false
		case math.Abs(v-best) <= epsilon:
			shared = true
			second = v
		case v > second:
			second = v
		}
	}

	if shared {
		return decision{}, false
	}

	return decision{
		winner:      winner,
		explanation: fmt.Sprintf("%s has the best %s (%s vs %s)", winner, label, format(best), format(second)),
	}, true
}

func twoTeamHeadToHead(tied []league.TeamRecord, st *Standings) (decision, bool) {
	a, b := tied[0].TeamID, tied[1].TeamID
	aWins, bWins, ok := st.Ledger.Wins(a, b)
	if !ok || aWins == bWins {
		return decision{}, false
	}
	if bWins > aWins {
		a, b = b, a
		aWins, bWins = bWins, aWins
	}
	return decision{
		winner:      a,
		explanation: fmt.Sprintf("%s won the head-to-head series %d-%d over %s", a, aWins, bWins, b),
	}, true
}

// missingHeadToHead describes a two-team head-to-head check that had no
// series to read. It returns "" for any other rule or when a series exists.
func missingHeadToHead(rule RuleID, tied []league.TeamRecord, st *Standings) string {
	if (rule != RuleHeadToHead && rule != RuleHeadToHeadSweep) || len(tied) != 2 {
		return ""
	}
	a, b := tied[0].TeamID, tied[1].TeamID
	if _, _, ok := st.Ledger.Wins(a, b); ok {
		return ""
	}
	return fmt.Sprintf("no head-to-head series between %s and %s, %s skipped", a, b, rule)
}

// headToHeadMiniLeague ranks the group by win percentage in games among themselves
func headToHeadMiniLeague(tied []league.TeamRecord, st *Standings) (decision, bool) {
	pct := make(map[string]float64, len(tied))
	for _, t := range tied {
		var wins, losses int
		for _, o := range tied {
			if o.TeamID == t.TeamID {
				continue
			}
			w, l, ok := st.Ledger.Wins(t.TeamID, o.TeamID)
			if !ok {
				continue
			}
			wins += w
			losses += l
		}
		if wins+losses == 0 {
			return decision{}, false
		}
		pct[t.TeamID] = float64(wins) / float64(wins+losses)
	}
	return bestBy(tied, "head-to-head record among tied teams", func(t league.TeamRecord) float64 {
		return pct[t.TeamID]
	}, formatPct)
}

// headToHeadSweep applies only when one team defeated every other tied team
func headToHeadSweep(tied []league.TeamRecord, st *Standings) (decision, bool) {
	for _, t := range tied {
		swept := true
		for _, o := range tied {
			if o.TeamID == t.TeamID {
				continue
			}
			w, l, ok := st.Ledger.Wins(t.TeamID, o.TeamID)
			if !ok || w == 0 || l > 0 {
				swept = false
				break
			}
		}
		if swept {
			return decision{
				winner:      t.TeamID,
				explanation: fmt.Sprintf("%s defeated each of the other %d tied teams", t.TeamID, len(tied)-1),
			}, true
		}
	}
	return decision{}, false
}

// commonGames compares records against opponents every tied team played
func commonGames(tied []league.TeamRecord, st *Standings, minGames int) (decision, bool) {
	inGroup := make(map[string]bool, len(tied))
	for _, t := range tied {
		inGroup[t.TeamID] = true
	}

	var common map[string]bool
	for _, t := range tied {
		played := make(map[string]bool)
		for opponent := range st.Metrics[t.TeamID].Versus {
			if !inGroup[opponent] {
				played[opponent] = true
			}
		}
		if common == nil {
			common = played
			continue
		}
		for opponent := range common {
			if !played[opponent] {
				delete(common, opponent)
			}
		}
	}
	if len(common) == 0 {
		return decision{}, false
	}

	pct := make(map[string]float64, len(tied))
	for _, t := range tied {
		var total league.Record
		for opponent := range common {
			total = total.Add(st.Metrics[t.TeamID].Versus[opponent])
		}
		if total.Games() < minGames || total.Games() == 0 {
			return decision{}, false
		}
		pct[t.TeamID] = total.WinPercentage()
	}

	opponents := make([]string, 0, len(common))
	for opponent := range common {
		opponents = append(opponents, opponent)
	}
	sort.Strings(opponents)

	d, ok := bestBy(tied, "record in common games", func(t league.TeamRecord) float64 {
		return pct[t.TeamID]
	}, formatPct)
	if ok {
		d.explanation += fmt.Sprintf(" against %s", strings.Join(opponents, ", "))
	}
	return d, ok
}

func (e *Engine) coinFlip(tied []league.TeamRecord) decision {
	e.mu.Lock()
	idx := e.rng.Intn(len(tied))
	e.mu.Unlock()

	winner := tied[idx].TeamID
	return decision{
		winner:      winner,
		explanation: fmt.Sprintf("coin flip selected %s from %d tied teams", winner, len(tied)),
	}
}

func formatPct(v float64) string {
	if math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func formatRank(v float64) string {
	if math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("rank %d", int(-v))
}

func formatPoints(v float64) string {
	if math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%+d", int(v))
}
