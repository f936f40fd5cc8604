package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	if err := shared.ApplyEnv(config); err != nil {
		logger.Warn("failed to apply environment overrides", "error", err)
	}

	var kv store.Store
	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warn("failed to open session database, state will not persist", "error", err)
		kv = store.NewMemoryStore()
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		sqliteStore, err := store.NewSQLiteStore(db)
		if err != nil {
			logger.Warn("failed to initialize session store, state will not persist", "error", err)
			kv = store.NewMemoryStore()
		} else {
			kv = sqliteStore
		}
	}

	timeout := time.Duration(config.API.TimeoutSeconds) * time.Second
	client := services.NewClient(config.API.BaseURL, kv, nil, timeout)

	auth := services.NewAuthService(client, kv, logger)
	manager := session.NewManager(auth, kv, logger)
	manager.Load()

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Auth:     auth,
		History:  services.NewHistoryService(client),
		Spotify:  services.NewSpotifyService(client),
		Emotion:  services.NewEmotionService(client),
		Sessions: manager,
		Store:    kv,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "anima",
		Usage:    "Emotion-based playlist recommendations from your terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Fatal(err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
