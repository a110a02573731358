package database

import (
	"context"
	"fmt"
	"time"

	"mtrbac/pkg/logger"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connector 按逻辑库名打开连接、创建逻辑库
type Connector interface {
	Open(ctx context.Context, name string) (*gorm.DB, error)
	CreateDatabase(ctx context.Context, name string) error
}

// GormConfig 主库与租户库共用的 gorm 配置；唯一键冲突统一翻译为 gorm.ErrDuplicatedKey
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
	}
}

// RetryPolicy 主库连接重试策略
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Connect 带指数退避的主库连接，次数用尽返回最后一次错误
func Connect(ctx context.Context, policy RetryPolicy, open func(ctx context.Context) (*gorm.DB, error)) (*gorm.DB, error) {
	appLogger := logger.GetLogger()

	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(policy.BaseDelay))

	var (
		db      *gorm.DB
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		conn, err := open(ctx)
		if err != nil {
			appLogger.Warnf("Main database connection attempt %d/%d failed: %v", attempt, attempts, err)
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect main database after %d attempts: %w", attempt, err)
	}

	appLogger.Infof("Main database connected (attempt %d)", attempt)
	return db, nil
}

// closeDB 关闭底层连接池
func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
