// Package dbtest 提供基于 SQLite 文件的逻辑库，供各包测试使用
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"mtrbac/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connector 每个逻辑库对应 Dir 下的一个 SQLite 文件
type Connector struct {
	Dir string
	// Fail 非空时 Open 先调用它，返回错误即模拟连接失败
	Fail func(name string) error

	opens atomic.Int64
	mu    sync.Mutex
	dbs   []*gorm.DB
}

// NewConnector 在测试临时目录中创建连接器，测试结束时关闭全部连接
func NewConnector(t testing.TB) *Connector {
	c := &Connector{Dir: t.TempDir()}
	t.Cleanup(c.closeAll)
	return c
}

// Opens Open 被调用并成功的次数
func (c *Connector) Opens() int64 {
	return c.opens.Load()
}

func (c *Connector) path(name string) string {
	return filepath.Join(c.Dir, name+".db")
}

// Open 打开逻辑库；单连接避免 SQLite 写锁竞争
func (c *Connector) Open(ctx context.Context, name string) (*gorm.DB, error) {
	if c.Fail != nil {
		if err := c.Fail(name); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(c.path(name)+"?_busy_timeout=5000&_foreign_keys=on"), database.GormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	c.opens.Add(1)
	c.mu.Lock()
	c.dbs = append(c.dbs, db)
	c.mu.Unlock()
	return db, nil
}

// CreateDatabase 创建空的库文件，已存在时不做任何事
func (c *Connector) CreateDatabase(_ context.Context, name string) error {
	f, err := os.OpenFile(c.path(name), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

// Exists 库文件是否已创建
func (c *Connector) Exists(name string) bool {
	_, err := os.Stat(c.path(name))
	return err == nil
}

func (c *Connector) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, db := range c.dbs {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	c.dbs = nil
}

// Env 测试用的主库与注册表
type Env struct {
	Connector *Connector
	Main      *gorm.DB
	Registry  *database.Registry
	Sequencer *database.Sequencer
}

// MainName 主库文件名
const MainName = "main"

// New 创建已迁移的主库和注册表
func New(t testing.TB) *Env {
	t.Helper()

	c := NewConnector(t)
	mainDB, err := c.Open(context.Background(), MainName)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(mainDB))

	return &Env{
		Connector: c,
		Main:      mainDB,
		Registry:  database.NewRegistry(mainDB, c, 0),
		Sequencer: database.NewSequencer(mainDB),
	}
}
