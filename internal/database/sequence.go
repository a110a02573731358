package database

import (
	"context"
	"fmt"

	apperrors "mtrbac/pkg/errors"

	"gorm.io/gorm"
)

// 单条语句完成“不存在则置 1，存在则加 1”并返回新值，Postgres 与 SQLite 通用
const nextSequenceSQL = `INSERT INTO counters (id, value) VALUES (?, 1)
ON CONFLICT (id) DO UPDATE SET value = counters.value + 1
RETURNING value`

// Sequencer 基于主库 counters 表的序列生成器
type Sequencer struct {
	db *gorm.DB
}

// NewSequencer 创建序列生成器
func NewSequencer(db *gorm.DB) *Sequencer {
	return &Sequencer{db: db}
}

// Next 原子自增并返回自增后的值
func (s *Sequencer) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	result := s.db.WithContext(ctx).Raw(nextSequenceSQL, name).Scan(&value)
	if result.Error != nil {
		return 0, apperrors.ErrSequenceGenerationFailed.WithCause(result.Error)
	}
	if value < 1 {
		return 0, apperrors.ErrSequenceGenerationFailed.WithCause(fmt.Errorf("counter %q returned no value", name))
	}
	return value, nil
}

// NextID 生成 prefix_001 形式的业务ID
func (s *Sequencer) NextID(ctx context.Context, prefix string) (string, error) {
	n, err := s.Next(ctx, prefix)
	if err != nil {
		return "", err
	}
	return FormatID(prefix, n), nil
}

// FormatID 三位补零，超过 999 不截断
func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}
