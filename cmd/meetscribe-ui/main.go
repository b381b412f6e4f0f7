// Command meetscribe-ui serves the interactive session-based front end:
// login, upload, review, generate, and browse history.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"meetscribe/internal/config"
	"meetscribe/internal/generate"
	"meetscribe/internal/history"
	"meetscribe/internal/redis"
	"meetscribe/internal/storage"
	"meetscribe/internal/ui"
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
		// The interactive surface stays usable without a credential; the
		// generate step serves the demo fallback instead.
		logger.Warn("no generation credential configured, running in demo mode",
			slog.String("provider", cfg.BasicConfig.Provider))
		generator = nil
	}

	ttl := ui.DefaultSessionTTL
	if cfg.BasicConfig.SessionTTL > 0 {
		ttl = time.Duration(cfg.BasicConfig.SessionTTL) * time.Minute
	}
	var sessions ui.SessionStore
	if redis.Enabled(cfg) {
		client, err := redis.NewClient(cfg)
		if err != nil {
			logger.Error("connect redis failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer client.Close()
		sessions = ui.NewRedisStore(client, ttl)
		logger.Info("sessions backed by redis")
	} else {
		mem := ui.NewMemoryStore(ttl)
		mem.StartSweeper(ctx, time.Hour)
		sessions = mem
	}

	router := gin.Default()
	handler := ui.NewHandler(store, generator, sessions, logger)
	handler.RegisterRoutes(router)

	logger.Info("ui listening", slog.String("address", cfg.BasicConfig.UIAddress))
	if err := router.Run(cfg.BasicConfig.UIAddress); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
