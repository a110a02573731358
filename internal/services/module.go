package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/pagination"

	"gorm.io/gorm"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Z _-]+$`)

var (
	ErrModuleNotFound      = apperrors.NotFound("Module not found")
	ErrModuleAlreadyExists = apperrors.Conflict("Module name already exists")
	ErrModuleInactive      = apperrors.Validation("Module is already inactive")
	ErrSystemModule        = apperrors.Validation("System module cannot be modified")
)

// ModuleInput 创建/更新模块的参数
type ModuleInput struct {
	ModuleName  string
	Description string
}

// ModuleService 模块目录，始终在主库
type ModuleService struct {
	db  *gorm.DB
	seq *database.Sequencer
}

func NewModuleService(db *gorm.DB, seq *database.Sequencer) *ModuleService {
	return &ModuleService{db: db, seq: seq}
}

// ========== 基础CRUD方法 ==========

// List 分页获取有效模块，最新的在前
func (s *ModuleService) List(ctx context.Context, page *pagination.PageParams) ([]models.ModuleName, int64, error) {
	var (
		modules []models.ModuleName
		total   int64
	)
	query := s.db.WithContext(ctx).Model(&models.ModuleName{}).Where("status = ?", models.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.GetOffset()).Limit(page.Limit).
		Find(&modules).Error
	return modules, total, err
}

// Get 按 moduleId 获取有效模块
func (s *ModuleService) Get(ctx context.Context, moduleID string) (*models.ModuleName, error) {
	var module models.ModuleName
	err := s.db.WithContext(ctx).
		Where("module_id = ? AND status = ?", moduleID, models.StatusActive).
		First(&module).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrModuleNotFound
	}
	return &module, err
}

// Create 创建模块；重名由唯一索引判定
func (s *ModuleService) Create(ctx context.Context, in ModuleInput, actor string) (*models.ModuleName, error) {
	name, err := normalizeModuleName(in.ModuleName)
	if err != nil {
		return nil, err
	}

	n, err := s.seq.Next(ctx, "module")
	if err != nil {
		return nil, err
	}
	module := &models.ModuleName{
		BaseModel:   models.BaseModel{ID: uint64(n)},
		ModuleID:    database.FormatID("module", n),
		ModuleName:  name,
		Description: strings.TrimSpace(in.Description),
		Audit:       models.Audit{CreatedBy: actor},
	}
	if err := s.db.WithContext(ctx).Create(module).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrModuleAlreadyExists
		}
		return nil, err
	}
	return module, nil
}

// Update 更新模块名称和描述
func (s *ModuleService) Update(ctx context.Context, moduleID string, in ModuleInput, actor string) (*models.ModuleName, error) {
	name, err := normalizeModuleName(in.ModuleName)
	if err != nil {
		return nil, err
	}
	module, err := s.Get(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module.IsSystem {
		return nil, ErrSystemModule
	}

	err = s.db.WithContext(ctx).Model(module).Updates(map[string]interface{}{
		"module_name":      name,
		"description":      strings.TrimSpace(in.Description),
		"audit_updated_by": actor,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrModuleAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, moduleID)
}

// Delete 软删除
func (s *ModuleService) Delete(ctx context.Context, moduleID, actor string) error {
	var module models.ModuleName
	err := s.db.WithContext(ctx).Where("module_id = ?", moduleID).First(&module).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrModuleNotFound
	}
	if err != nil {
		return err
	}
	if module.IsSystem {
		return ErrSystemModule
	}
	return softDelete(ctx, s.db, &models.ModuleName{}, "module_id", moduleID, auditUpdate(actor), ErrModuleNotFound, ErrModuleInactive)
}

// ========== 校验方法 ==========

// MissingModules 返回 ids 中不存在或已失效的模块
func (s *ModuleService) MissingModules(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	if err := s.db.WithContext(ctx).Model(&models.ModuleName{}).
		Where("module_id IN ? AND status = ?", ids, models.StatusActive).
		Pluck("module_id", &found).Error; err != nil {
		return nil, err
	}

	active := make(map[string]struct{}, len(found))
	for _, id := range found {
		active[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := active[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func normalizeModuleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("Module name is required")
	}
	if !moduleNamePattern.MatchString(name) {
		return "", apperrors.Validation("Module name must contain only uppercase letters, spaces, underscores or hyphens")
	}
	return name, nil
}
