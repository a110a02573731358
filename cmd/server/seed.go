package main

import (
	"context"
	"fmt"
	"time"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	"mtrbac/pkg/logger"

	"gorm.io/gorm"
)

// naturalKeyed 种子数据按业务主键去重
type naturalKeyed interface {
	NaturalKey() (column, value string)
}

// seedData 写入主库的系统模块和超级管理员角色，已存在的跳过
func seedData(ctx context.Context, db *gorm.DB, seq *database.Sequencer) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	now := time.Now()
	created := 0
	for _, t := range models.Templates(models.ScopeMain) {
		if t.Defaults == nil {
			continue
		}
		for _, seed := range t.Defaults(models.ScopeMain) {
			keyed, ok := seed.(naturalKeyed)
			if !ok {
				continue
			}
			column, value := keyed.NaturalKey()

			var count int64
			if err := db.WithContext(ctx).Table(t.Kind).Where(column+" = ?", value).Count(&count).Error; err != nil {
				return fmt.Errorf("check %s %s: %w", t.Kind, value, err)
			}
			if count > 0 {
				continue
			}

			id, err := seq.Next(ctx, t.Sequence())
			if err != nil {
				return err
			}
			seed.Seed(uint64(id), now)
			if err := db.WithContext(ctx).Create(seed).Error; err != nil {
				return fmt.Errorf("seed %s %s: %w", t.Kind, value, err)
			}
			created++
		}
	}

	appLogger.Infof("Seed data initialization completed, %d records created", created)
	return nil
}
