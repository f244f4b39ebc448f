package config

import (
	"context"
	"fmt"
	"time"

	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *AppConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema. Reference tables come first so
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Rank{},
		&models.Establishment{},
		&models.User{},
		&models.Requester{},
		&models.Inquiry{},
		&models.Response{},
		&models.Attachment{},
	)
}

func NewFileStore(cfg *AppConfig) (storage.FileStore, error) {
	if cfg.Storage == "s3" {
		return storage.NewS3Store(cfg.R2.S3Config()), nil
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// NewPublicLimiter uses Redis when REDIS_ADDR is set and reachable, and an
// in-process limiter otherwise.
func NewPublicLimiter(ctx context.Context, cfg *AppConfig, log logrus.FieldLogger) (middleware.Limiter, func() error) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			return middleware.NewRedisLimiter(client, cfg.RateLimit, cfg.RateWindow), client.Close
		}
		log.WithField("error", err.Error()).Warn("redis unavailable, rate limiting in memory")
		_ = client.Close()
	}
	return middleware.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow), func() error { return nil }
}
