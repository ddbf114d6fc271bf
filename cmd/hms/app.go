package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	mongodb "github.com/medora/hospital-system/internal/infrastructure/db/mongo"
	redisdb "github.com/medora/hospital-system/internal/infrastructure/db/redis"
	"github.com/medora/hospital-system/internal/pkg/config"
	"github.com/medora/hospital-system/pkg/logger"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	mongo *mongo.Client
	db    *mongo.Database
	redis *redis.Client
}

func bootstrap(ctx context.Context, withRedis bool) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "hms",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	a := &app{cfg: cfg, log: log, mongo: client, db: db}
	if withRedis {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		a.redis = rdb
	}
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("mongo disconnect")
	}
}

func (a *app) migrate(ctx context.Context) error {
	if err := mongodb.Migrate(ctx, a.db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	a.log.Info().Msg("indexes ensured")
	return nil
}
