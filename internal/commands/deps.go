package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-finance-backend/internal/config"
	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/repository/memory"
)

// openStore builds the store selected by STORAGE_DRIVER. The returned func releases it.
func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := config.InitDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormStore(db), closeDB(db, log), nil
}

func closeDB(db *gorm.DB, log *zap.Logger) func() {
	return func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}
}

// newLocker returns a Redis-backed locker when REDIS_ADDR is set, otherwise an in-process one.
func newLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))

	return lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}
