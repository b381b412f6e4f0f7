// Command meetscribe-api serves the stateless HTTP API: transcript
// extraction, summary/email generation, and the history listing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"meetscribe/internal/api"
	"meetscribe/internal/config"
	"meetscribe/internal/generate"
	"meetscribe/internal/history"
	"meetscribe/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("load config failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbType := config.DBType()
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		logger.Error("open database failed",
			slog.String("driver", dbType),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		logger.Error("migrate database failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store := history.NewStore(db, logger)

	ctx := context.Background()
	generator, err := generate.NewClient(ctx, cfg, logger)
	if err != nil {
		if !errors.Is(err, generate.ErrMissingCredential) {
			logger.Error("init generation client failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		// Run without a generator: /upload and /history still work,
		// /generate reports the configuration error.
		logger.Warn("no generation credential configured",
			slog.String("provider", cfg.BasicConfig.Provider))
		generator = nil
	}

	router := gin.Default()
	handler := api.NewHandler(store, generator, logger)
	handler.RegisterRoutes(router, cfg.BasicConfig.AllowedOrigins)

	logger.Info("api listening", slog.String("address", cfg.BasicConfig.APIAddress))
	if err := router.Run(cfg.BasicConfig.APIAddress); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
