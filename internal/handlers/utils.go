package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// APIResponse represents the standard response format for our tools
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Summary  string      `json:"summary"`
	Error    string      `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	CacheHit     bool      `json:"cache_hit"`
	Season       int       `json:"season,omitempty"`
	TournamentID string    `json:"tournament_id,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// jsonResult wraps a successful response, reporting formatting failures as tool errors
func (h *PlayoffHandler) jsonResult(response APIResponse) *mcp.CallToolResult {
	jsonResponse, err := formatJSONResponse(response)
	if err != nil {
		h.logger.WithError(err).Error("Failed to format response")
		return errorResult("Error formatting response: %s", err.Error())
	}
	return textResult(jsonResponse)
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required and must be a string", key)
	}
	return value, nil
}

// intArg reads a whole number argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, required bool) (int, bool, error) {
	raw, exists := args[key]
	if !exists || raw == nil {
		if required {
			return 0, false, fmt.Errorf("%s is required and must be an integer", key)
		}
		return 0, false, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return int(n), true, nil
	}
	return 0, false, fmt.Errorf("%s must be an integer", key)
}

func stringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key].([]interface{})
	if !ok {
		if typed, ok := args[key].([]string); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("%s is required and must be an array of strings", key)
	}

	values := make([]string, 0, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%s[%d] must be a non-empty string", key, i)
		}
		values = append(values, s)
	}
	return values, nil
}
