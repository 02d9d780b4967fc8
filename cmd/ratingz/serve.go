package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/auth"
	"github.com/Clark-Hu/ratingz/internal/cache"
	"github.com/Clark-Hu/ratingz/internal/catalog"
	"github.com/Clark-Hu/ratingz/internal/config"
	httpserver "github.com/Clark-Hu/ratingz/internal/http"
	"github.com/Clark-Hu/ratingz/internal/metrics"
	"github.com/Clark-Hu/ratingz/internal/repository"
	"github.com/Clark-Hu/ratingz/internal/service"
	"github.com/Clark-Hu/ratingz/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, rootLogger)
	},
}

func runServe(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("starting ratingz",
		zap.String("environment", cfg.Environment),
		zap.String("policy", string(cfg.RatingPolicy)))

	if cfg.MigrateOnStart {
		if err := migrateUp(cfg.DBURL, logger); err != nil {
			return err
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	if err := m.RegisterPool(st.Stats); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}

	statsCache, closeCache, err := buildStatsCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	var lookup catalog.Client
	if cfg.CatalogURL != "" {
		client, err := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogAPIKey, time.Duration(cfg.CatalogTimeoutSecs)*time.Second, logger)
		if err != nil {
			return fmt.Errorf("init catalog client: %w", err)
		}
		lookup = client
	}

	admin, err := auth.NewAdminGate(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminTokenSecret,
		time.Duration(cfg.AdminTokenTTLMins)*time.Minute)
	if err != nil {
		return fmt.Errorf("init admin gate: %w", err)
	}
	users := auth.NewUserVerifier(cfg.UserJWTSecret)
	if users == nil {
		logger.Warn("AUTH_JWT_SECRET not set, user sessions disabled")
	}

	repo := repository.New(st)
	server, err := httpserver.New(cfg, httpserver.Deps{
		Health:   st,
		Feedback: service.NewFeedback(service.FeedbackDeps{
			Movies:    repo.Movies,
			Ratings:   repo.Ratings,
			Reactions: repo.Reactions,
			Cache:     statsCache,
			Metrics:   m,
			Logger:    logger,
		}, cfg.RatingPolicy),
		Catalog: service.NewCatalog(service.CatalogDeps{
			Movies:    repo.Movies,
			Ratings:   repo.Ratings,
			Reactions: repo.Reactions,
			Cache:     statsCache,
			Lookup:    lookup,
			Logger:    logger,
		}),
		Profiles: service.NewProfiles(repo.Profiles, repo.Ratings, repo.Reactions, logger),
		Admin:    admin,
		Users:    users,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// buildStatsCache prefers Redis, falls back to an in-process cache, and
// disables caching when the TTL is zero.
func buildStatsCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.StatsCache, func(), error) {
	ttl := time.Duration(cfg.StatsCacheTTLSecs) * time.Second
	if ttl == 0 {
		return cache.Nop{}, func() {}, nil
	}
	if cfg.RedisURL == "" {
		return cache.NewMemory(ttl), func() {}, nil
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL, ttl, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}, nil
}
