package services

import (
	"context"
	"fmt"
	"time"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/metrics"

	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Provisioner 创建租户逻辑库并按注册表建表、写入种子数据；每一步都可重复执行
type Provisioner struct {
	registry *database.Registry
	seq      *database.Sequencer
	now      func() time.Time
}

func NewProvisioner(registry *database.Registry, seq *database.Sequencer) *Provisioner {
	return &Provisioner{
		registry: registry,
		seq:      seq,
		now:      time.Now,
	}
}

// Provision 单张表失败只记录并继续，全部处理完后如有失败返回 ErrProvisioningFailed
func (p *Provisioner) Provision(ctx context.Context, key string) error {
	tenantLogger := logger.WithTenant(key)

	if err := p.registry.CreateTenantDatabase(ctx, key); err != nil {
		tenantLogger.Errorf("Failed to create tenant database: %v", err)
		return apperrors.ErrProvisioningFailed.WithCause(err)
	}

	db, err := p.registry.Tenant(ctx, key)
	if err != nil {
		return err
	}

	var errs error
	for _, t := range models.Templates(models.ScopeTenant) {
		changed, err := p.provisionTable(ctx, db, t)
		if err != nil {
			metrics.IncProvisioningFailure(t.Kind)
			tenantLogger.WithField("collection", t.Kind).Errorf("Failed to provision collection: %v", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.Kind, err))
			continue
		}
		if changed {
			tenantLogger.WithField("collection", t.Kind).Debug("Collection provisioned")
		}
	}

	if errs != nil {
		return apperrors.ErrProvisioningFailed.WithCause(errs)
	}
	tenantLogger.Info("Tenant database provisioned")
	return nil
}

// ProvisionAll 为所有有效租户补齐缺失的表，单个租户失败不影响其他租户
func (p *Provisioner) ProvisionAll(ctx context.Context) error {
	var keys []string
	if err := p.registry.Main().WithContext(ctx).
		Model(&models.Tenant{}).
		Where("status = ?", models.StatusActive).
		Order("id").
		Pluck("tenant_key", &keys).Error; err != nil {
		return err
	}

	appLogger := logger.GetLogger()
	appLogger.Infof("Syncing %d active tenants", len(keys))

	var errs error
	for _, key := range keys {
		if err := p.Provision(ctx, key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tenant %s: %w", key, err))
		}
	}
	return errs
}

// provisionTable 建表和写种子在同一事务内完成，失败时整体回滚；
// 表已存在但没有任何记录（早期中断留下的空表）同样补写种子
func (p *Provisioner) provisionTable(ctx context.Context, db *gorm.DB, t models.Template) (bool, error) {
	changed := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if migrator.HasTable(t.New()) {
			var n int64
			if err := tx.Model(t.New()).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
		} else if err := migrator.CreateTable(t.New()); err != nil {
			return err
		}

		if err := p.seed(ctx, tx, t); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

// seed 写入默认数据，没有默认数据写一条占位记录
func (p *Provisioner) seed(ctx context.Context, tx *gorm.DB, t models.Template) error {
	at := p.now()
	var seeds []models.Seedable
	if t.Defaults != nil {
		seeds = t.Defaults(models.ScopeTenant)
	}

	if len(seeds) == 0 {
		// 占位记录 ID 为 0，序列分配的 ID 从 1 开始，二者不会冲突
		placeholder := t.New()
		placeholder.Seed(0, at)
		return tx.Create(placeholder).Error
	}

	for _, s := range seeds {
		id, err := p.seq.Next(ctx, t.Sequence())
		if err != nil {
			return err
		}
		s.Seed(uint64(id), at)
		if err := tx.Create(s).Error; err != nil {
			return err
		}
	}
	return nil
}
