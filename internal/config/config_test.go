package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playoff_settings.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func TestLoadPlayoffSettings(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantError   bool
		wantTimeout time.Duration
		wantSeed    bool
	}{
		{
			name:        "full settings",
			body:        `{"name": "Test", "standings_url": "http://x", "request_timeout_seconds": 3, "coin_flip_seed": 42, "team_aliases": {"Chiefs": "KC"}}`,
			wantTimeout: 3 * time.Second,
			wantSeed:    true,
		},
		{
			name:        "missing timeout falls back",
			body:        `{"name": "Test", "request_timeout_seconds": 0}`,
			wantTimeout: 10 * time.Second,
		},
		{
			name:      "malformed",
			body:      `{"name": `,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, source, err := LoadPlayoffSettings(writeSettings(t, tt.body))

			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if source == "" {
				t.Error("Expected source path to be reported")
			}
			if settings.RequestTimeout() != tt.wantTimeout {
				t.Errorf("Expected timeout %s, got %s", tt.wantTimeout, settings.RequestTimeout())
			}
			if (settings.CoinFlipSeed != nil) != tt.wantSeed {
				t.Errorf("Expected seed presence %t, got %v", tt.wantSeed, settings.CoinFlipSeed)
			}
			if settings.TeamAliases == nil {
				t.Error("Expected alias map to be initialized")
			}
		})
	}
}

func TestLoadPlayoffSettings_ExplicitPathMissing(t *testing.T) {
	_, _, err := LoadPlayoffSettings(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("Expected error for a missing explicit settings file")
	}
}

func TestLoadPlayoffSettings_RepositoryFile(t *testing.T) {
	settings, source, err := LoadPlayoffSettings("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if source == "" {
		t.Skip("no settings file reachable from the working directory")
	}
	if teamID, ok := settings.ResolveAlias("chiefs"); !ok || teamID != "KC" {
		t.Errorf("Expected chiefs alias to resolve to KC, got %q", teamID)
	}
}

func TestResolveAlias(t *testing.T) {
	settings := DefaultSettings()
	settings.TeamAliases["Niners"] = "SF"

	if id, ok := settings.ResolveAlias("  niners "); !ok || id != "SF" {
		t.Errorf("Expected SF, got %q (%t)", id, ok)
	}
	if _, ok := settings.ResolveAlias("Raiders"); ok {
		t.Error("Expected unknown alias to fail")
	}
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	path := writeSettings(t, `{"standings_url": "http://file", "request_timeout_seconds": 5, "extended_tiebreakers": false}`)

	t.Setenv("PLAYOFFS_SETTINGS_PATH", path)
	t.Setenv("STANDINGS_URL", "http://env")
	t.Setenv("STANDINGS_TIMEOUT", "2s")
	t.Setenv("COIN_FLIP_SEED", "7")
	t.Setenv("EXTENDED_TIEBREAKERS", "true")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := New()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Settings.StandingsURL != "http://env" {
		t.Errorf("Expected env standings URL, got %s", cfg.Settings.StandingsURL)
	}
	if cfg.Settings.RequestTimeout() != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %s", cfg.Settings.RequestTimeout())
	}
	if cfg.Settings.CoinFlipSeed == nil || *cfg.Settings.CoinFlipSeed != 7 {
		t.Errorf("Expected coin flip seed 7, got %v", cfg.Settings.CoinFlipSeed)
	}
	if !cfg.Settings.ExtendedTiebreakers {
		t.Error("Expected extended tiebreakers enabled from env")
	}
	if cfg.Env.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTP addr :9090, got %s", cfg.Env.HTTPAddr)
	}
	if cfg.Env.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Env.LogLevel)
	}
	if cfg.SettingsSource != path {
		t.Errorf("Expected source %s, got %s", path, cfg.SettingsSource)
	}
}

func TestNew_InvalidEnvironment(t *testing.T) {
	t.Setenv("PLAYOFFS_SETTINGS_PATH", writeSettings(t, `{}`))
	t.Setenv("COIN_FLIP_SEED", "heads")

	if _, err := New(); err == nil {
		t.Error("Expected error for a non-numeric coin flip seed")
	}
}
