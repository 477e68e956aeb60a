package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
)

const fuzzyMatchThreshold = 0.6

// teamCandidate is a team a user reference may resolve to
type teamCandidate struct {
	ID   string
	Name string
}

func candidatesFromRecords(records map[string]league.TeamRecord) []teamCandidate {
	out := make([]teamCandidate, 0, len(records))
	for id, rec := range records {
		out = append(out, teamCandidate{ID: id, Name: rec.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func candidatesFromGame(g bracket.PlayoffGame, seeds []seeding.PlayoffSeed) []teamCandidate {
	names := make(map[string]string, len(seeds))
	for _, s := range seeds {
		names[s.TeamID] = s.Name
	}
	return []teamCandidate{
		{ID: g.HomeTeamID, Name: names[g.HomeTeamID]},
		{ID: g.AwayTeamID, Name: names[g.AwayTeamID]},
	}
}

// resolveTeam maps a user supplied team reference onto a candidate id.
// Exact ids win, then configured aliases, then the closest name by
// Levenshtein similarity above the threshold.
func (h *PlayoffHandler) resolveTeam(input string, candidates []teamCandidate) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("team reference is empty")
	}

	for _, c := range candidates {
		if strings.EqualFold(c.ID, input) {
			return c.ID, nil
		}
	}

	if h.settings != nil {
		if id, ok := h.settings.ResolveAlias(input); ok {
			for _, c := range candidates {
				if strings.EqualFold(c.ID, id) {
					return c.ID, nil
				}
			}
			return "", fmt.Errorf("%q refers to %s, which is not one of %s", input, id, describeCandidates(candidates))
		}
	}

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		for _, label := range []string{c.Name, c.ID} {
			if label == "" {
				continue
			}
			score := similarity(input, label)
			if score > bestScore {
				best, bestScore = c.ID, score
			}
		}
	}

	if bestScore < fuzzyMatchThreshold {
		return "", fmt.Errorf("team not found: %s (expected one of %s)", input, describeCandidates(candidates))
	}

	h.logger.WithField("input", input).WithField("team_id", best).Debug("Resolved team by name similarity")
	return best, nil
}

func similarity(a, b string) float64 {
	distance := fuzzy.LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
	maxLen := float64(max(len(a), len(b)))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(distance)/maxLen
}

func describeCandidates(candidates []teamCandidate) string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	if len(ids) > 8 {
		return strings.Join(ids[:8], ", ") + fmt.Sprintf(" and %d more", len(ids)-8)
	}
	return strings.Join(ids, ", ")
}
