// Package storage selects the persistence backend configured by
// STORE_DRIVER and exposes it behind a single interface.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-survey-backend/internal/config"
	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
	"github.com/tbourn/go-survey-backend/internal/repo/mongorepo"
	"github.com/tbourn/go-survey-backend/internal/repo/redisrepo"
)

// Backend is implemented by every store adapter.
type Backend interface {
	GetDevice(ctx context.Context, deviceID string) (*domain.DeviceRecord, error)
	PutDevice(ctx context.Context, rec *domain.DeviceRecord) error
	GetSurvey(ctx context.Context, id string) (*domain.SurveyResponse, error)
	PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error
	ListSurveys(ctx context.Context, order domain.Order) ([]domain.SurveyResponse, error)
	SurveysStats(ctx context.Context) (int64, *time.Time, error)
	Close() error
}

var (
	_ Backend = (*repo.GormStore)(nil)
	_ Backend = (*mongorepo.Store)(nil)
	_ Backend = (*redisrepo.Store)(nil)
)

// Open connects to the backend named by cfg.Driver. Connection attempts are
// bounded by cfg.Timeout.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	logger := log.With().Str("store", cfg.Driver).Logger()

	switch cfg.Driver {
	case "sqlite", "postgres", "mysql":
		dsn := cfg.DSN
		if cfg.Driver == "sqlite" {
			dsn = cfg.DBPath
		}
		db, err := repo.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		logger.Info().Msg("sql store ready")
		return repo.NewGormStore(db), nil
	case "mongo":
		s, err := mongorepo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("mongo store ready")
		return s, nil
	case "redis":
		s, err := redisrepo.Open(ctx, redisrepo.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis store ready")
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}
