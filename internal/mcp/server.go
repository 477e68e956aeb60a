package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/handlers"
	"github.com/sirupsen/logrus"
)

const (
	serverName    = "Playoff Bracket Engine"
	serverVersion = "1.0.0"
)

type toolFunc func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// toolRoutes pairs every tool definition with its handler
func toolRoutes(h *handlers.PlayoffHandler) ([]mcp.Tool, map[string]toolFunc) {
	entries := []struct {
		tool   mcp.Tool
		handle toolFunc
	}{
		{h.ComputePlayoffSeedingTool(), h.HandleComputePlayoffSeeding},
		{h.ExplainTiebreakerTool(), h.HandleExplainTiebreaker},
		{h.StartTournamentTool(), h.HandleStartTournament},
		{h.RecordGameResultTool(), h.HandleRecordGameResult},
		{h.AdvanceRoundTool(), h.HandleAdvanceRound},
		{h.GetBracketStatusTool(), h.HandleGetBracketStatus},
		{h.ValidateBracketTool(), h.HandleValidateBracket},
		{h.ListTournamentsTool(), h.HandleListTournaments},
		{h.GetPlayoffHistoryTool(), h.HandleGetPlayoffHistory},
	}

	tools := make([]mcp.Tool, 0, len(entries))
	routes := make(map[string]toolFunc, len(entries))
	for _, e := range entries {
		tools = append(tools, e.tool)
		routes[e.tool.Name] = e.handle
	}
	return tools, routes
}

// NewPlayoffMCPServer registers the playoff tools on a new MCP server
func NewPlayoffMCPServer(h *handlers.PlayoffHandler, logger *logrus.Logger) *server.DefaultServer {
	s := server.NewDefaultServer(serverName, serverVersion)

	if s == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	tools, routes := toolRoutes(h)

	s.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		logger.WithField("tools_count", len(tools)).Info("Listing available tools")

		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	s.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		logger.WithFields(logrus.Fields{
			"tool": name,
			"args": arguments,
		}).Info("Tool called")

		handle, ok := routes[name]
		if !ok {
			logger.WithField("tool", name).Warn("Unknown tool called")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{
						Type: "text",
						Text: "Unknown tool: " + name,
					},
				},
				IsError: true,
			}, nil
		}
		if arguments == nil {
			arguments = map[string]interface{}{}
		}
		return handle(ctx, arguments)
	})

	logger.WithField("tools_count", len(tools)).Info("All tools registered successfully")
	return s
}
