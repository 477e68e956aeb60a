package standings

import (
	"fmt"

	"github.com/sam-maryland/playoff-bracket-mcp/internal/league"
)

// SeasonRecords is the payload of the records endpoint
type SeasonRecords struct {
	Season int                 `json:"season"`
	Teams  []league.TeamRecord `json:"teams"`
}

// SeasonGames is the payload of the games endpoint
type SeasonGames struct {
	Season int                 `json:"season"`
	Games  []league.GameResult `json:"games"`
}

// HeadToHeadLedger maps "A|B" pair keys to series scores such as "2-0"
type HeadToHeadLedger struct {
	Season int               `json:"season"`
	Series map[string]string `json:"series"`
}

// StandingsError represents an error from the standings service
type StandingsError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Season     int    `json:"season,omitempty"`
}

func (e *StandingsError) Error() string {
	if e.Season != 0 {
		return fmt.Sprintf("%s (season %d)", e.Message, e.Season)
	}
	return e.Message
}

// NotFound reports whether the service had no data for the request
func (e *StandingsError) NotFound() bool {
	return e.StatusCode == 404
}
