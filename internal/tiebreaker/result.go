package tiebreaker

import (
	"fmt"
	"strings"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
)

// RuleID identifies a tiebreaker rule
type RuleID int

const (
	RuleHeadToHead RuleID = iota
	RuleHeadToHeadSweep
	RuleDivisionRecord
	RuleConferenceRecord
	RuleCommonGames
	RuleStrengthOfVictory
	RuleStrengthOfSchedule
	RuleCombinedRankingConference
	RuleCombinedRankingAll
	RuleNetPointsConference
	RuleNetPointsAll
	RuleCoinFlip
)

func (r RuleID) String() string {
	switch r {
	case RuleHeadToHead:
		return "head_to_head"
	case RuleHeadToHeadSweep:
		return "head_to_head_sweep"
	case RuleDivisionRecord:
		return "division_record"
	case RuleConferenceRecord:
		return "conference_record"
	case RuleCommonGames:
		return "common_games"
	case RuleStrengthOfVictory:
		return "strength_of_victory"
	case RuleStrengthOfSchedule:
		return "strength_of_schedule"
	case RuleCombinedRankingConference:
		return "combined_ranking_conference"
	case RuleCombinedRankingAll:
		return "combined_ranking_all"
	case RuleNetPointsConference:
		return "net_points_conference"
	case RuleNetPointsAll:
		return "net_points_all"
	case RuleCoinFlip:
		return "coin_flip"
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// MarshalText renders the rule by name
func (r RuleID) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Kind selects which cascade is applied
type Kind int

const (
	KindDivision Kind = iota
	KindWildCard
)

func (k Kind) String() string {
	switch k {
	case KindDivision:
		return "division"
	case KindWildCard:
		return "wild_card"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts "division" or "wild_card"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "division", "":
		return KindDivision, nil
	case "wild_card", "wildcard", "wild-card":
		return KindWildCard, nil
	}
	return 0, fmt.Errorf("unknown tiebreaker kind %q", s)
}

// Result records one decisive rule application
type Result struct {
	Rule        RuleID   `json:"rule"`
	Tied        []string `json:"tied"`
	Winner      string   `json:"winner"`
	Eliminated  []string `json:"eliminated"`
	Explanation string   `json:"explanation"`
	Notes       []string `json:"notes,omitempty"`
}

// Resolution is a tied group in fully resolved order, winner first
type Resolution struct {
	Kind  Kind                `json:"-"`
	Order []league.TeamRecord `json:"-"`
	Steps []Result            `json:"steps"`
}

// TeamIDs returns the resolved order as team ids
func (r Resolution) TeamIDs() []string {
	ids := make([]string, len(r.Order))
	for i, t := range r.Order {
		ids[i] = t.TeamID
	}
	return ids
}

// Notes returns the distinct notes raised across all steps, in step order
func (r Resolution) Notes() []string {
	return StepNotes(r.Steps)
}

// StepNotes returns the distinct notes raised across steps, in order
func StepNotes(steps []Result) []string {
	var notes []string
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, n := range step.Notes {
			if !seen[n] {
				seen[n] = true
				notes = append(notes, n)
			}
		}
	}
	return notes
}
