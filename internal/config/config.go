package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env holds environment overrides
type Env struct {
	SettingsPath        string        `envconfig:"PLAYOFFS_SETTINGS_PATH"`
	StandingsURL        string        `envconfig:"STANDINGS_URL"`
	StandingsTimeout    time.Duration `envconfig:"STANDINGS_TIMEOUT"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr            string        `envconfig:"HTTP_ADDR"`
	DatabaseURL         string        `envconfig:"DATABASE_URL"`
	CoinFlipSeed        *int64        `envconfig:"COIN_FLIP_SEED"`
	ExtendedTiebreakers *bool         `envconfig:"EXTENDED_TIEBREAKERS"`
}

type Config struct {
	Env            Env
	Settings       *PlayoffSettings
	SettingsSource string
}

// New reads the environment and the settings file. Environment values win.
func New() (*Config, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	settings, source, err := LoadPlayoffSettings(env.SettingsPath)
	if err != nil {
		return nil, err
	}

	if env.StandingsURL != "" {
		settings.StandingsURL = env.StandingsURL
	}
	if env.StandingsTimeout > 0 {
		settings.RequestTimeoutSeconds = int(env.StandingsTimeout.Round(time.Second) / time.Second)
		if settings.RequestTimeoutSeconds == 0 {
			settings.RequestTimeoutSeconds = 1
		}
	}
	if env.CoinFlipSeed != nil {
		seed := *env.CoinFlipSeed
		settings.CoinFlipSeed = &seed
	}
	if env.ExtendedTiebreakers != nil {
		settings.ExtendedTiebreakers = *env.ExtendedTiebreakers
	}

	return &Config{Env: env, Settings: settings, SettingsSource: source}, nil
}
