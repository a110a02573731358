package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// duplicate_database
const pgDuplicateDatabase = "42P04"

// PostgresConnector 每个租户一个 Postgres 数据库，库名即租户内部标识
type PostgresConnector struct {
	prefix  string
	options string
	admin   *gorm.DB // 用于执行 CREATE DATABASE 的连接，一般就是主库
	maxOpen int
	maxIdle int
}

// NewPostgresConnector 租户 DSN = prefix + name + options
func NewPostgresConnector(prefix, options string, admin *gorm.DB, maxOpen, maxIdle int) *PostgresConnector {
	return &PostgresConnector{
		prefix:  prefix,
		options: options,
		admin:   admin,
		maxOpen: maxOpen,
		maxIdle: maxIdle,
	}
}

// DSN 逻辑库连接串
func (c *PostgresConnector) DSN(name string) string {
	return c.prefix + name + c.options
}

// SetAdmin 主库连上后再注入
func (c *PostgresConnector) SetAdmin(db *gorm.DB) {
	c.admin = db
}

// Open 打开连接并在 ctx 时限内等待连通
func (c *PostgresConnector) Open(ctx context.Context, name string) (*gorm.DB, error) {
	return OpenDSN(ctx, c.DSN(name), c.maxOpen, c.maxIdle)
}

// OpenDSN 打开任意 Postgres DSN，主库连接也走这里
func OpenDSN(ctx context.Context, dsn string, maxOpen, maxIdle int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// CreateDatabase 不存在则创建，并发创建时的重复错误视为成功
func (c *PostgresConnector) CreateDatabase(ctx context.Context, name string) error {
	if c.admin == nil {
		return errors.New("postgres connector has no admin connection")
	}

	var exists bool
	if err := c.admin.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", name).
		Scan(&exists).Error; err != nil {
		return err
	}
	if exists {
		return nil
	}

	err := c.admin.WithContext(ctx).Exec("CREATE DATABASE " + quoteIdent(name)).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateDatabase {
		return nil
	}
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
