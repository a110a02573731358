package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/metrics"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// DefaultConnectTimeout 租户连接建立的等待上限
const DefaultConnectTimeout = 20 * time.Second

// IsMainKey 哨兵 "1" 和空串都表示主库
func IsMainKey(key string) bool {
	return key == "" || key == models.MainTenantKey
}

// Registry 主库连接加上按租户标识缓存的租户库连接；缓存只增不减，进程退出时统一关闭
type Registry struct {
	main      *gorm.DB
	connector Connector
	timeout   time.Duration

	mu    sync.RWMutex
	conns map[string]*gorm.DB
	group singleflight.Group
}

// NewRegistry 创建连接注册表
func NewRegistry(main *gorm.DB, connector Connector, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Registry{
		main:      main,
		connector: connector,
		timeout:   timeout,
		conns:     make(map[string]*gorm.DB),
	}
}

// Main 主库连接
func (r *Registry) Main() *gorm.DB {
	return r.main
}

// Tenant 取租户库连接，未缓存时建立连接；同一租户的并发首次访问只会留下一个连接
func (r *Registry) Tenant(ctx context.Context, key string) (*gorm.DB, error) {
	if IsMainKey(key) {
		return r.main, nil
	}
	if db, ok := r.cached(key); ok {
		return db, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if db, ok := r.cached(key); ok {
			return db, nil
		}
		return r.open(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// ForCaller 按令牌中的租户标识取调用者自己的库；超级管理员令牌不带租户标识，落到主库
func (r *Registry) ForCaller(ctx context.Context, tenantKey string) (*gorm.DB, error) {
	return r.Tenant(ctx, tenantKey)
}

// CreateTenantDatabase 创建租户逻辑库，已存在时直接返回
func (r *Registry) CreateTenantDatabase(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	return r.connector.CreateDatabase(ctx, key)
}

// Len 已缓存的租户连接数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close 关闭全部租户连接和主库连接
func (r *Registry) Close() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*gorm.DB)
	r.mu.Unlock()

	appLogger := logger.GetLogger()
	var errs error
	for key, db := range conns {
		if err := closeDB(db); err != nil {
			appLogger.WithField("tenant", key).Errorf("Failed to close tenant database: %v", err)
			errs = multierr.Append(errs, fmt.Errorf("tenant %s: %w", key, err))
		}
	}
	metrics.SetTenantConnections(0)

	if r.main != nil {
		if err := closeDB(r.main); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("main: %w", err))
		}
	}
	return errs
}

func (r *Registry) cached(key string) (*gorm.DB, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db, ok := r.conns[key]
	return db, ok
}

func (r *Registry) open(ctx context.Context, key string) (*gorm.DB, error) {
	tenantLogger := logger.WithTenant(key)

	// 连接是共享的，不随发起请求的取消而中断，只受等待上限约束
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	db, err := r.connector.Open(ctx, key)
	if err != nil {
		metrics.IncTenantConnectErrors()
		tenantLogger.Errorf("Failed to connect tenant database: %v", err)
		return nil, apperrors.ErrTenantConnectionFailed.WithCause(err)
	}

	r.mu.Lock()
	if existing, ok := r.conns[key]; ok {
		r.mu.Unlock()
		if err := closeDB(db); err != nil {
			tenantLogger.Warnf("Failed to close duplicate tenant connection: %v", err)
		}
		return existing, nil
	}
	r.conns[key] = db
	n := len(r.conns)
	r.mu.Unlock()

	metrics.SetTenantConnections(n)
	tenantLogger.Info("Tenant database connected")
	return db, nil
}
