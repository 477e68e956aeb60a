package standings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "http://localhost:8081/v1"
	DefaultTimeout = 10 * time.Second
)

// Client defines the interface for reading final season data from the standings service
type Client interface {
	GetTeamRecords(ctx context.Context, season int) (map[string]league.TeamRecord, error)
	GetGames(ctx context.Context, season int) ([]league.GameResult, error)
	GetHeadToHead(ctx context.Context, season int) (map[string]string, error)
}

// HTTPClient implements the Client interface using HTTP requests
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPClient creates a new HTTP client for the standings service. An
// empty baseURL or non-positive timeout falls back to the defaults.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// makeRequest performs an HTTP GET request to the standings service
func (c *HTTPClient) makeRequest(ctx context.Context, endpoint string, season int, result interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	c.logger.WithField("url", url).Debug("Making standings request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("HTTP request failed")
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read response body")
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Standings request failed")

		return &StandingsError{
			Type:       "api_error",
			Message:    fmt.Sprintf("standings request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			StatusCode: resp.StatusCode,
			Season:     season,
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		c.logger.WithError(err).WithField("body", string(body)).Error("Failed to unmarshal response")
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("Standings request completed successfully")
	return nil
}

// GetTeamRecords retrieves every team's final record keyed by team id
func (c *HTTPClient) GetTeamRecords(ctx context.Context, season int) (map[string]league.TeamRecord, error) {
	endpoint := fmt.Sprintf("/seasons/%d/records", season)
	var payload SeasonRecords

	if err := c.makeRequest(ctx, endpoint, season, &payload); err != nil {
		return nil, fmt.Errorf("failed to get team records for season %d: %w", season, err)
	}

	records := make(map[string]league.TeamRecord, len(payload.Teams))
	for _, team := range payload.Teams {
		if team.TeamID == "" {
			continue
		}
		records[team.TeamID] = team
	}
	return records, nil
}

// GetGames retrieves the regular season game log
func (c *HTTPClient) GetGames(ctx context.Context, season int) ([]league.GameResult, error) {
	endpoint := fmt.Sprintf("/seasons/%d/games", season)
	var payload SeasonGames

	if err := c.makeRequest(ctx, endpoint, season, &payload); err != nil {
		return nil, fmt.Errorf("failed to get games for season %d: %w", season, err)
	}

	return payload.Games, nil
}

// GetHeadToHead retrieves the head-to-head series ledger
func (c *HTTPClient) GetHeadToHead(ctx context.Context, season int) (map[string]string, error) {
	endpoint := fmt.Sprintf("/seasons/%d/head-to-head", season)
	var payload HeadToHeadLedger

	if err := c.makeRequest(ctx, endpoint, season, &payload); err != nil {
		return nil, fmt.Errorf("failed to get head-to-head for season %d: %w", season, err)
	}

	return payload.Series, nil
}

// GetSeasonInput assembles a seeding input for a season. Team records are
// required; a missing game log or head-to-head ledger is reported as a
// warning and the input is returned without it.
func GetSeasonInput(ctx context.Context, client Client, season int, logger *logrus.Logger) (*league.PlayoffSeedingInput, []string, error) {
	records, err := client.GetTeamRecords(ctx, season)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, &StandingsError{Type: "no_data", Message: "standings service returned no team records", Season: season}
	}

	input := &league.PlayoffSeedingInput{Season: season, Teams: records}
	var warnings []string

	games, err := client.GetGames(ctx, season)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		warnings = append(warnings, describeMissing("game log", err))
		logger.WithError(err).WithField("season", season).Warn("Game log unavailable, continuing without it")
	} else {
		input.Games = games
	}

	series, err := client.GetHeadToHead(ctx, season)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		warnings = append(warnings, describeMissing("head-to-head ledger", err))
		logger.WithError(err).WithField("season", season).Warn("Head-to-head ledger unavailable, continuing without it")
	} else {
		input.HeadToHead = series
	}

	return input, warnings, nil
}

func describeMissing(what string, err error) string {
	var se *StandingsError
	if errors.As(err, &se) && se.NotFound() {
		return fmt.Sprintf("%s not published for this season", what)
	}
	return fmt.Sprintf("%s unavailable: %v", what, err)
}
