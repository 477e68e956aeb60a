package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const defaultRequestTimeoutSeconds = 10

// PlayoffSettings represents the playoff engine configuration file
type PlayoffSettings struct {
	Instructions          string            `json:"_instructions,omitempty"`
	Name                  string            `json:"name"`
	Description           string            `json:"description"`
	StandingsURL          string            `json:"standings_url"`
	RequestTimeoutSeconds int               `json:"request_timeout_seconds"`
	CoinFlipSeed          *int64            `json:"coin_flip_seed,omitempty"`
	ExtendedTiebreakers   bool              `json:"extended_tiebreakers"`
	TeamAliases           map[string]string `json:"team_aliases"` // alias -> team id
}

// DefaultSettings is used when no settings file can be found
func DefaultSettings() *PlayoffSettings {
	return &PlayoffSettings{
		Name:                  "Playoff Bracket Engine",
		Description:           "Seven-team conference playoffs with reseeding",
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		TeamAliases:           make(map[string]string),
	}
}

// LoadPlayoffSettings loads the settings file. An explicit path must exist;
// otherwise the usual locations relative to the working directory are
// searched and defaults are returned when none is present.
func LoadPlayoffSettings(explicitPath string) (*PlayoffSettings, string, error) {
	configPaths := []string{
		"configs/playoff_settings.json",
		"../configs/playoff_settings.json",
		"../../configs/playoff_settings.json",
	}
	if explicitPath != "" {
		configPaths = []string{explicitPath}
	}

	var configData []byte
	var foundPath string

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			var readErr error
			configData, readErr = os.ReadFile(path)
			if readErr == nil {
				foundPath = path
				break
			}
		}
	}

	if foundPath == "" {
		if explicitPath != "" {
			return nil, "", fmt.Errorf("settings file %s not found", explicitPath)
		}
		return DefaultSettings(), "", nil
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(configData, settings); err != nil {
		return nil, "", fmt.Errorf("failed to parse playoff settings from %s: %w", foundPath, err)
	}
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if settings.TeamAliases == nil {
		settings.TeamAliases = make(map[string]string)
	}

	return settings, foundPath, nil
}

// RequestTimeout returns the standings request timeout
func (s *PlayoffSettings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// ResolveAlias maps a configured alias to its team id, ignoring case
func (s *PlayoffSettings) ResolveAlias(alias string) (string, bool) {
	needle := strings.TrimSpace(alias)
	for a, teamID := range s.TeamAliases {
		if strings.EqualFold(a, needle) {
			return teamID, true
		}
	}
	return "", false
}
