package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/archive"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/config"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/registry"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/standings"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/tiebreaker"
	"github.com/sirupsen/logrus"
)

const (
	sourceInline    = "inline"
	sourceCache     = "cache"
	sourceStandings = "standings_service"
	sourceMemory    = "memory"
	sourceArchive   = "archive"
)

// Archive persists seedings and brackets beyond the life of the process
type Archive interface {
	SaveSeeding(ctx context.Context, ps *seeding.PlayoffSeeding) (int64, error)
	SaveBracket(ctx context.Context, tournamentID string, summary bracket.Summary) error
	ListChampions(ctx context.Context, limit int) ([]archive.Champion, error)
}

// TiebreakerExplanation is the response body of explain_tiebreaker
type TiebreakerExplanation struct {
	Season   int                 `json:"season"`
	Kind     string              `json:"kind"`
	Teams    []string            `json:"teams"`
	Order    []string            `json:"order"`
	Steps    []tiebreaker.Result `json:"steps"`
	Warnings []string            `json:"warnings,omitempty"`
}

// PlayoffHandler handles seeding, tiebreaker and tournament MCP tools
type PlayoffHandler struct {
	client   standings.Client
	seeder   *seeding.Calculator
	engine   *tiebreaker.Engine
	registry *registry.Registry
	archive  Archive
	settings *config.PlayoffSettings
	logger   *logrus.Logger
}

// NewPlayoffHandler creates a new playoff handler
func NewPlayoffHandler(client standings.Client, seeder *seeding.Calculator, engine *tiebreaker.Engine, reg *registry.Registry, settings *config.PlayoffSettings, logger *logrus.Logger) *PlayoffHandler {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &PlayoffHandler{
		client:   client,
		seeder:   seeder,
		engine:   engine,
		registry: reg,
		settings: settings,
		logger:   logger,
	}
}

// SetArchive enables persistence of seedings and brackets
func (h *PlayoffHandler) SetArchive(a Archive) {
	h.archive = a
}

// ComputePlayoffSeedingTool returns the MCP tool definition for compute_playoff_seeding
func (h *PlayoffHandler) ComputePlayoffSeedingTool() mcp.Tool {
	return mcp.Tool{
		Name:        "compute_playoff_seeding",
		Description: "Compute the seven playoff seeds per conference and the wild card matchups from final regular season standings, applying the tiebreaker cascades",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"season": map[string]interface{}{
					"type":        "integer",
					"description": "Season year, e.g. 2024",
					"required":    true,
				},
				"input": map[string]interface{}{
					"type":        "object",
					"description": "Optional standings payload {teams: {id: record}, head_to_head: {\"A|B\": \"W-L\"}, games: [...]}. When omitted the standings service is queried.",
					"required":    false,
				},
				"refresh": map[string]interface{}{
					"type":        "boolean",
					"description": "Ignore cached standings and query the standings service again (default: false)",
					"required":    false,
				},
			},
		},
	}
}

// HandleComputePlayoffSeeding handles the compute_playoff_seeding tool call
func (h *PlayoffHandler) HandleComputePlayoffSeeding(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling compute_playoff_seeding")

	season, _, err := intArg(args, "season", true)
	if err != nil {
		return nil, err
	}

	var inline *league.PlayoffSeedingInput
	if raw, ok := args["input"]; ok && raw != nil {
		inline, err = parseSeedingInput(raw, season)
		if err != nil {
			return nil, err
		}
	}
	refresh, _ := args["refresh"].(bool)

	result, source, cacheHit, err := h.computeSeeding(ctx, season, inline, refresh)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to compute playoff seeding")
		return errorResult("Failed to compute playoff seeding: %s", err.Error()), nil
	}

	afc := result.Seeds(league.AFC)
	nfc := result.Seeds(league.NFC)
	response := APIResponse{
		Success: true,
		Data:    result,
		Summary: fmt.Sprintf("Season %d seeding: AFC #1 %s, NFC #1 %s; %d wild card games, %d tiebreakers applied",
			season, afc[0].TeamID, nfc[0].TeamID, len(result.Matchups), len(result.Tiebreakers)),
		Metadata: Metadata{
			Timestamp: time.Now(),
			Source:    source,
			CacheHit:  cacheHit,
			Season:    season,
			Warnings:  result.Warnings,
		},
	}

	return h.jsonResult(response), nil
}

// computeSeeding seeds a season from inline or fetched standings and caches
// both the standings and the result
func (h *PlayoffHandler) computeSeeding(ctx context.Context, season int, inline *league.PlayoffSeedingInput, refresh bool) (*seeding.PlayoffSeeding, string, bool, error) {
	input := inline
	source := sourceInline
	cacheHit := false
	var fetchWarnings []string

	if input != nil {
		h.seeder.Forget(season)
	} else {
		var err error
		input, fetchWarnings, source, cacheHit, err = h.standingsFor(ctx, season, refresh)
		if err != nil {
			return nil, source, false, err
		}
	}

	result, err := h.seeder.Calculate(input)
	if err != nil {
		return nil, source, cacheHit, err
	}
	if len(fetchWarnings) > 0 {
		result.Warnings = append(fetchWarnings, result.Warnings...)
	}

	h.registry.PutStandings(input)

	if h.archive != nil {
		id, err := h.archive.SaveSeeding(ctx, result)
		if err != nil {
			h.logger.WithError(err).WithField("season", season).Warn("Failed to archive seeding")
			result.Warnings = append(result.Warnings, fmt.Sprintf("seeding not archived: %v", err))
		} else {
			h.logger.WithFields(logrus.Fields{"season": season, "archive_id": id}).Debug("Archived seeding")
		}
	}

	h.registry.PutSeeding(result)
	return result, source, cacheHit, nil
}

// standingsFor returns cached standings for a season, fetching them from
// the standings service on a miss or when refresh is set
func (h *PlayoffHandler) standingsFor(ctx context.Context, season int, refresh bool) (*league.PlayoffSeedingInput, []string, string, bool, error) {
	if !refresh {
		if input, ok := h.registry.Standings(season); ok {
			return input, nil, sourceCache, true, nil
		}
	}
	if h.client == nil {
		return nil, nil, sourceStandings, false, fmt.Errorf("no standings for season %d and no standings service configured", season)
	}

	input, warnings, err := standings.GetSeasonInput(ctx, h.client, season, h.logger)
	if err != nil {
		return nil, nil, sourceStandings, false, err
	}
	h.seeder.Forget(season)
	h.registry.PutStandings(input)
	return input, warnings, sourceStandings, false, nil
}

// parseSeedingInput decodes an inline standings payload. Team ids default
// to their map keys.
func parseSeedingInput(raw interface{}, season int) (*league.PlayoffSeedingInput, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}

	var input league.PlayoffSeedingInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("input is not a valid standings payload: %w", err)
	}

	switch input.Season {
	case 0:
		input.Season = season
	case season:
	default:
		return nil, fmt.Errorf("input season %d does not match season %d", input.Season, season)
	}

	for id, rec := range input.Teams {
		if rec.TeamID == "" {
			rec.TeamID = id
			input.Teams[id] = rec
		}
	}
	return &input, nil
}

// ExplainTiebreakerTool returns the MCP tool definition for explain_tiebreaker
func (h *PlayoffHandler) ExplainTiebreakerTool() mcp.Tool {
	return mcp.Tool{
		Name:        "explain_tiebreaker",
		Description: "Resolve a tie between two or more teams with the division or wild card cascade and explain which rule decided each step",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"season": map[string]interface{}{
					"type":        "integer",
					"description": "Season year whose standings to use",
					"required":    true,
				},
				"teams": map[string]interface{}{
					"type":        "array",
					"description": "Tied teams by id, alias or name",
					"items": map[string]interface{}{
						"type": "string",
					},
					"required": true,
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Cascade to apply: division (default) or wild_card",
					"enum":        []string{"division", "wild_card"},
					"required":    false,
				},
			},
		},
	}
}

// HandleExplainTiebreaker handles the explain_tiebreaker tool call
func (h *PlayoffHandler) HandleExplainTiebreaker(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling explain_tiebreaker")

	season, _, err := intArg(args, "season", true)
	if err != nil {
		return nil, err
	}
	refs, err := stringSliceArg(args, "teams")
	if err != nil {
		return nil, err
	}
	if len(refs) < 2 {
		return nil, fmt.Errorf("teams must name at least two teams")
	}
	kindArg, _ := args["kind"].(string)
	kind, err := tiebreaker.ParseKind(kindArg)
	if err != nil {
		return nil, err
	}

	input, _, source, cacheHit, err := h.standingsFor(ctx, season, false)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to load standings")
		return errorResult("Failed to load standings for season %d: %s", season, err.Error()), nil
	}

	tied, err := h.tiedGroup(kind, refs, input)
	if err != nil {
		return errorResult("Cannot break tie: %s", err.Error()), nil
	}

	st, warnings, err := h.seeder.Standings(input)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to build tiebreaker standings")
		return errorResult("Failed to build standings: %s", err.Error()), nil
	}

	resolution := h.engine.Break(kind, tied, st)
	warnings = append(warnings, resolution.Notes()...)
	explanation := TiebreakerExplanation{
		Season:   season,
		Kind:     kind.String(),
		Order:    resolution.TeamIDs(),
		Steps:    resolution.Steps,
		Warnings: warnings,
	}
	for _, t := range tied {
		explanation.Teams = append(explanation.Teams, t.TeamID)
	}

	summary := fmt.Sprintf("%s tiebreaker order: %s", kind, strings.Join(explanation.Order, " > "))
	if len(resolution.Steps) > 0 {
		first := resolution.Steps[0]
		summary += fmt.Sprintf(" (%s won on %s)", first.Winner, first.Rule)
	}

	response := APIResponse{
		Success: true,
		Data:    explanation,
		Summary: summary,
		Metadata: Metadata{
			Timestamp: time.Now(),
			Source:    source,
			CacheHit:  cacheHit,
			Season:    season,
			Warnings:  warnings,
		},
	}

	return h.jsonResult(response), nil
}

// tiedGroup resolves team references and checks the group suits the cascade
func (h *PlayoffHandler) tiedGroup(kind tiebreaker.Kind, refs []string, input *league.PlayoffSeedingInput) ([]league.TeamRecord, error) {
	candidates := candidatesFromRecords(input.Teams)
	seen := make(map[string]bool, len(refs))
	tied := make([]league.TeamRecord, 0, len(refs))

	for _, ref := range refs {
		id, err := h.resolveTeam(ref, candidates)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("%s is listed more than once", id)
		}
		seen[id] = true
		tied = append(tied, input.Teams[id])
	}

	first := tied[0]
	for _, t := range tied[1:] {
		if t.Conference != first.Conference {
			return nil, fmt.Errorf("%s (%s) and %s (%s) are in different conferences", first.TeamID, first.Conference, t.TeamID, t.Conference)
		}
		if kind == tiebreaker.KindDivision && t.Division != first.Division {
			return nil, fmt.Errorf("division tiebreakers need one division, got %s and %s", first.Division, t.Division)
		}
	}
	return tied, nil
}
