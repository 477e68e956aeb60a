package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/bracket"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/registry"
	"github.com/sirupsen/logrus"
)

// TournamentView is a tournament snapshot tagged with its id
type TournamentView struct {
	TournamentID string `json:"tournament_id"`
	bracket.Summary
}

// GameResultView is the response body of record_game_result
type GameResultView struct {
	Game               bracket.PlayoffGame `json:"game"`
	CurrentRound       bracket.Round       `json:"current_round"`
	RoundComplete      bool                `json:"round_complete"`
	TournamentComplete bool                `json:"tournament_complete"`
	SuperBowlWinner    string              `json:"super_bowl_winner,omitempty"`
}

// ValidationView is the response body of validate_bracket
type ValidationView struct {
	TournamentID string   `json:"tournament_id"`
	Valid        bool     `json:"valid"`
	Problems     []string `json:"problems"`
}

func tournamentIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Tournament id returned by start_tournament",
		"required":    true,
	}
}

// StartTournamentTool returns the MCP tool definition for start_tournament
func (h *PlayoffHandler) StartTournamentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "start_tournament",
		Description: "Start a playoff tournament from a season's seeding, scheduling the six wild card games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"season": map[string]interface{}{
					"type":        "integer",
					"description": "Season year. The seeding is computed first if it has not been.",
					"required":    true,
				},
			},
		},
	}
}

// HandleStartTournament handles the start_tournament tool call
func (h *PlayoffHandler) HandleStartTournament(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling start_tournament")

	season, _, err := intArg(args, "season", true)
	if err != nil {
		return nil, err
	}

	ps, cacheHit := h.registry.Seeding(season)
	source := sourceCache
	if !cacheHit {
		ps, source, _, err = h.computeSeeding(ctx, season, nil, false)
		if err != nil {
			h.logger.WithError(err).WithField("season", season).Error("Failed to seed tournament")
			return errorResult("Failed to compute seeding for season %d: %s", season, err.Error()), nil
		}
	}

	id, t, err := h.registry.Create(ps)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to start tournament")
		return errorResult("Failed to start tournament: %s", err.Error()), nil
	}
	warnings := h.archiveBracket(ctx, id, t)

	response := APIResponse{
		Success: true,
		Data:    TournamentView{TournamentID: id, Summary: t.Summary()},
		Summary: fmt.Sprintf("Tournament %s started for season %d: %d wild card games scheduled",
			id, season, len(t.Games(bracket.RoundWildCard))),
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       source,
			CacheHit:     cacheHit,
			Season:       season,
			TournamentID: id,
			Warnings:     warnings,
		},
	}

	return h.jsonResult(response), nil
}

// RecordGameResultTool returns the MCP tool definition for record_game_result
func (h *PlayoffHandler) RecordGameResultTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_game_result",
		Description: "Record the final score of a playoff game in the current round. The winner may be given by id, alias or name.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty(),
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game id, e.g. 2024-WC-AFC-2v7",
					"required":    true,
				},
				"winner": map[string]interface{}{
					"type":        "string",
					"description": "Winning team",
					"required":    true,
				},
				"home_score": map[string]interface{}{
					"type":        "integer",
					"description": "Final home team score",
					"required":    true,
				},
				"away_score": map[string]interface{}{
					"type":        "integer",
					"description": "Final away team score",
					"required":    true,
				},
			},
		},
	}
}

// HandleRecordGameResult handles the record_game_result tool call
func (h *PlayoffHandler) HandleRecordGameResult(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling record_game_result")

	tournamentID, err := stringArg(args, "tournament_id")
	if err != nil {
		return nil, err
	}
	gameID, err := stringArg(args, "game_id")
	if err != nil {
		return nil, err
	}
	winner, err := stringArg(args, "winner")
	if err != nil {
		return nil, err
	}
	homeScore, _, err := intArg(args, "home_score", true)
	if err != nil {
		return nil, err
	}
	awayScore, _, err := intArg(args, "away_score", true)
	if err != nil {
		return nil, err
	}

	t, result := h.tournament(tournamentID)
	if result != nil {
		return result, nil
	}

	game, ok := t.Game(gameID)
	if !ok {
		return errorResult("Game %s not found in tournament %s", gameID, tournamentID), nil
	}

	winnerID, err := h.resolveTeam(winner, candidatesFromGame(game, t.Summary().Seeds))
	if err != nil {
		return errorResult("Invalid winner for %s: %s", gameID, err.Error()), nil
	}

	game, err = t.RecordResult(gameID, winnerID, homeScore, awayScore)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"tournament_id": tournamentID,
			"game_id":       gameID,
		}).Warn("Rejected game result")
		return errorResult("Failed to record result for %s: %s", gameID, err.Error()), nil
	}
	warnings := h.archiveBracket(ctx, tournamentID, t)

	summary := t.Summary()
	view := GameResultView{
		Game:               game,
		CurrentRound:       summary.CurrentRound,
		TournamentComplete: summary.TournamentComplete,
		SuperBowlWinner:    summary.SuperBowlWinner,
	}
	if rs, ok := summary.Round(game.Round); ok {
		view.RoundComplete = rs.RemainingGames == 0
	}

	winScore, loseScore := game.HomeScore, game.AwayScore
	if game.WinnerID == game.AwayTeamID {
		winScore, loseScore = loseScore, winScore
	}
	text := fmt.Sprintf("%s defeated %s %d-%d in %s", game.WinnerID, game.LoserID(), winScore, loseScore, game.Round)
	switch {
	case view.TournamentComplete:
		text += fmt.Sprintf("; %s won the Super Bowl", summary.SuperBowlWinner)
	case view.RoundComplete:
		text += "; round complete, call advance_round to continue"
	}

	response := APIResponse{
		Success: true,
		Data:    view,
		Summary: text,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceMemory,
			Season:       summary.Season,
			TournamentID: tournamentID,
			Warnings:     warnings,
		},
	}

	return h.jsonResult(response), nil
}

// AdvanceRoundTool returns the MCP tool definition for advance_round
func (h *PlayoffHandler) AdvanceRoundTool() mcp.Tool {
	return mcp.Tool{
		Name:        "advance_round",
		Description: "Close the current round once every game has a result and schedule the next round, reseeding so the top seed hosts the lowest survivor",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty(),
			},
		},
	}
}

// HandleAdvanceRound handles the advance_round tool call
func (h *PlayoffHandler) HandleAdvanceRound(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling advance_round")

	tournamentID, err := stringArg(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	t, result := h.tournament(tournamentID)
	if result != nil {
		return result, nil
	}

	next, err := t.Advance()
	if err != nil {
		h.logger.WithError(err).WithField("tournament_id", tournamentID).Warn("Cannot advance round")
		return errorResult("Cannot advance tournament %s: %s", tournamentID, err.Error()), nil
	}
	warnings := h.archiveBracket(ctx, tournamentID, t)

	games := t.Games(next)
	matchups := make([]string, len(games))
	for i, g := range games {
		matchups[i] = fmt.Sprintf("(%d) %s vs (%d) %s", g.HomeSeed, g.HomeTeamID, g.AwaySeed, g.AwayTeamID)
	}

	response := APIResponse{
		Success: true,
		Data:    games,
		Summary: fmt.Sprintf("Advanced to %s: %s", next, strings.Join(matchups, ", ")),
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceMemory,
			Season:       t.Season(),
			TournamentID: tournamentID,
			Warnings:     warnings,
		},
	}

	return h.jsonResult(response), nil
}

// GetBracketStatusTool returns the MCP tool definition for get_bracket_status
func (h *PlayoffHandler) GetBracketStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_bracket_status",
		Description: "Get the full bracket: every round's games, who is still alive, who was eliminated and the champions once decided",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty(),
			},
		},
	}
}

// HandleGetBracketStatus handles the get_bracket_status tool call
func (h *PlayoffHandler) HandleGetBracketStatus(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_bracket_status")

	tournamentID, err := stringArg(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	t, result := h.tournament(tournamentID)
	if result != nil {
		return result, nil
	}

	summary := t.Summary()
	text := fmt.Sprintf("Season %d complete: %s won the Super Bowl (AFC %s, NFC %s)",
		summary.Season, summary.SuperBowlWinner, summary.AFCChampion, summary.NFCChampion)
	if !summary.TournamentComplete {
		rs, _ := summary.Round(summary.CurrentRound)
		text = fmt.Sprintf("Season %d, %s: %d of %d games complete",
			summary.Season, summary.CurrentRound, rs.CompletedGames, rs.ExpectedGames)
	}

	response := APIResponse{
		Success: true,
		Data:    TournamentView{TournamentID: tournamentID, Summary: summary},
		Summary: text,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceMemory,
			Season:       summary.Season,
			TournamentID: tournamentID,
		},
	}

	return h.jsonResult(response), nil
}

// ValidateBracketTool returns the MCP tool definition for validate_bracket
func (h *PlayoffHandler) ValidateBracketTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_bracket",
		Description: "Check a tournament's bracket for structural problems such as wrong game counts or teams that should have been eliminated",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty(),
			},
		},
	}
}

// HandleValidateBracket handles the validate_bracket tool call
func (h *PlayoffHandler) HandleValidateBracket(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling validate_bracket")

	tournamentID, err := stringArg(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	t, result := h.tournament(tournamentID)
	if result != nil {
		return result, nil
	}

	problems := t.Validate()
	text := "Bracket is consistent"
	if len(problems) > 0 {
		text = fmt.Sprintf("Bracket has %d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}

	response := APIResponse{
		Success: true,
		Data: ValidationView{
			TournamentID: tournamentID,
			Valid:        len(problems) == 0,
			Problems:     problems,
		},
		Summary: text,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceMemory,
			Season:       t.Season(),
			TournamentID: tournamentID,
		},
	}

	return h.jsonResult(response), nil
}

// ListTournamentsTool returns the MCP tool definition for list_tournaments
func (h *PlayoffHandler) ListTournamentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tournaments",
		Description: "List tournaments started in this session with their current round",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// TournamentListing is one row of list_tournaments
type TournamentListing struct {
	TournamentID    string        `json:"tournament_id"`
	Season          int           `json:"season"`
	CreatedAt       time.Time     `json:"created_at"`
	CurrentRound    bracket.Round `json:"current_round"`
	Complete        bool          `json:"complete"`
	SuperBowlWinner string        `json:"super_bowl_winner,omitempty"`
}

// HandleListTournaments handles the list_tournaments tool call
func (h *PlayoffHandler) HandleListTournaments(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling list_tournaments")

	entries := h.registry.List()
	listings := make([]TournamentListing, 0, len(entries))
	for _, e := range entries {
		s := e.Tournament.Summary()
		listings = append(listings, TournamentListing{
			TournamentID:    e.ID,
			Season:          e.Season,
			CreatedAt:       e.CreatedAt,
			CurrentRound:    s.CurrentRound,
			Complete:        s.TournamentComplete,
			SuperBowlWinner: s.SuperBowlWinner,
		})
	}

	response := APIResponse{
		Success: true,
		Data:    listings,
		Summary: fmt.Sprintf("%d tournament(s) in progress or complete", len(listings)),
		Metadata: Metadata{
			Timestamp: time.Now(),
			Source:    sourceMemory,
		},
	}

	return h.jsonResult(response), nil
}

// tournament looks up a tournament, returning a tool error result when it
// does not exist
func (h *PlayoffHandler) tournament(id string) (*bracket.Tournament, *mcp.CallToolResult) {
	t, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, errorResult("Tournament %s not found", id)
		}
		return nil, errorResult("Failed to load tournament %s: %s", id, err.Error())
	}
	return t, nil
}

func (h *PlayoffHandler) archiveBracket(ctx context.Context, id string, t *bracket.Tournament) []string {
	if h.archive == nil {
		return nil
	}
	if err := h.archive.SaveBracket(ctx, id, t.Summary()); err != nil {
		h.logger.WithError(err).WithField("tournament_id", id).Warn("Failed to archive bracket")
		return []string{fmt.Sprintf("bracket not archived: %v", err)}
	}
	return nil
}
