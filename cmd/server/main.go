package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/archive"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/config"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/handlers"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/httpapi"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/mcp"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/registry"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/seeding"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/standings"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/strength"
	"github.com/sam-maryland/playoff-bracket-mcp/internal/tiebreaker"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Debug("No .env file loaded")
	}

	cfg, err := config.New()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Env.LogLevel)
	if err != nil {
		logger.WithError(err).WithField("log_level", cfg.Env.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.WithField("settings", cfg.SettingsSource).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts := []tiebreaker.Option{
		tiebreaker.WithLogger(logger),
		tiebreaker.WithExtendedRules(cfg.Settings.ExtendedTiebreakers),
	}
	if cfg.Settings.CoinFlipSeed != nil {
		engineOpts = append(engineOpts, tiebreaker.WithRandom(rand.New(rand.NewSource(*cfg.Settings.CoinFlipSeed))))
		logger.WithField("seed", *cfg.Settings.CoinFlipSeed).Info("Coin flips are seeded")
	}
	engine := tiebreaker.New(engineOpts...)

	strengthCalc := strength.NewCalculator(logger)
	seeder := seeding.NewCalculator(strengthCalc, engine, logger, seeding.WithStrengthCache(strength.NewCache(strengthCalc)))
	reg := registry.New(logger)
	client := standings.NewHTTPClient(cfg.Settings.StandingsURL, cfg.Settings.RequestTimeout(), logger)

	handler := handlers.NewPlayoffHandler(client, seeder, engine, reg, cfg.Settings, logger)

	if cfg.Env.DatabaseURL != "" {
		store, err := openArchive(ctx, cfg.Env.DatabaseURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Archive unavailable, results will not be persisted")
		} else {
			defer store.Close()
			handler.SetArchive(store)
		}
	}

	if cfg.Env.HTTPAddr != "" {
		api := httpapi.NewServer(reg, logger)
		go func() {
			if err := api.ListenAndServe(ctx, cfg.Env.HTTPAddr); err != nil {
				logger.WithError(err).Error("Status API stopped")
			}
		}()
	}

	mcpServer := mcp.NewPlayoffMCPServer(handler, logger)
	if mcpServer == nil {
		logger.Fatal("Failed to create MCP server")
	}

	logger.Info("Starting Playoff Bracket MCP Server...")

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
		os.Exit(1)
	}
}

func openArchive(ctx context.Context, dsn string, logger *logrus.Logger) (*archive.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := archive.NewStore(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
