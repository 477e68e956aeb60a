package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/archive"
)

const defaultHistoryLimit = 10

// PlayoffHistory is the response body of get_playoff_history
type PlayoffHistory struct {
	Champions []archive.Champion `json:"champions"`
	Titles    map[string]int     `json:"titles"`
}

// GetPlayoffHistoryTool returns the MCP tool definition for get_playoff_history
func (h *PlayoffHandler) GetPlayoffHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_playoff_history",
		Description: "List past Super Bowl and conference champions from completed tournaments, most recent season first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of seasons to return (default: 10)",
					"required":    false,
				},
			},
		},
	}
}

// HandleGetPlayoffHistory handles the get_playoff_history tool call
func (h *PlayoffHandler) HandleGetPlayoffHistory(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_playoff_history")

	limit, ok, err := intArg(args, "limit", false)
	if err != nil {
		return nil, err
	}
	if !ok || limit <= 0 {
		limit = defaultHistoryLimit
	}

	source := sourceMemory
	var champions []archive.Champion
	if h.archive != nil {
		source = sourceArchive
		champions, err = h.archive.ListChampions(ctx, limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load playoff history")
			return errorResult("Failed to load playoff history: %s", err.Error()), nil
		}
	} else {
		champions = h.sessionChampions(limit)
	}

	history := PlayoffHistory{
		Champions: champions,
		Titles:    make(map[string]int),
	}
	for _, c := range champions {
		history.Titles[c.SuperBowlWinner]++
	}

	summary := "No completed tournaments yet"
	if len(champions) > 0 {
		latest := champions[0]
		summary = fmt.Sprintf("%d champion(s); most recent: %s won season %d over the %s champion",
			len(champions), latest.SuperBowlWinner, latest.Season, runnerUpConference(latest))
	}

	response := APIResponse{
		Success: true,
		Data:    history,
		Summary: summary,
		Metadata: Metadata{
			Timestamp: time.Now(),
			Source:    source,
		},
	}

	return h.jsonResult(response), nil
}

// sessionChampions collects champions from completed in-memory tournaments
func (h *PlayoffHandler) sessionChampions(limit int) []archive.Champion {
	var out []archive.Champion
	for _, e := range h.registry.List() {
		s := e.Tournament.Summary()
		if !s.TournamentComplete {
			continue
		}
		out = append(out, archive.Champion{
			Season:          s.Season,
			TournamentID:    e.ID,
			SuperBowlWinner: s.SuperBowlWinner,
			AFCChampion:     s.AFCChampion,
			NFCChampion:     s.NFCChampion,
			CompletedAt:     e.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season > out[j].Season
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func runnerUpConference(c archive.Champion) string {
	if c.SuperBowlWinner == c.AFCChampion {
		return "NFC"
	}
	return "AFC"
}
