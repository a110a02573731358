package services

import (
	"context"

	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"

	"gorm.io/gorm"
)

// setStatus 状态迁移统一入口：只更新处于 from 状态的记录，迁移合法性由 models.Status 校验
func setStatus(ctx context.Context, db *gorm.DB, model interface{}, column, id string, from, to models.Status, extra map[string]interface{}) (int64, error) {
	if err := from.Transition(to); err != nil {
		return 0, apperrors.Wrap(apperrors.KindValidation, err, "invalid status change")
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := db.WithContext(ctx).Model(model).
		Where(column+" = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// softDelete 有效记录置为无效；记录不存在返回 notFound，已经无效返回 alreadyInactive
func softDelete(ctx context.Context, db *gorm.DB, model interface{}, column, id string, extra map[string]interface{}, notFound, alreadyInactive *apperrors.AppError) error {
	n, err := setStatus(ctx, db, model, column, id, models.StatusActive, models.StatusInactive, extra)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return alreadyInactive
}

// auditUpdate 更新人字段
func auditUpdate(actor string) map[string]interface{} {
	if actor == "" {
		return nil
	}
	return map[string]interface{}{"audit_updated_by": actor}
}
