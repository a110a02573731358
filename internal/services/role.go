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

var roleNamePattern = regexp.MustCompile(`^[A-Z\s]+$`)

var (
	ErrRoleNotFound      = apperrors.NotFound("Role not found")
	ErrRoleAlreadyExists = apperrors.Conflict("Role name already exists")
	ErrRoleInactive      = apperrors.Validation("Role is already inactive")
	ErrSystemRole        = apperrors.Validation("System role cannot be modified")
)

// RoleInput 创建/更新角色的参数
type RoleInput struct {
	RoleName    string
	Description string
	Permissions []models.Permission
}

// RoleService 角色管理；角色存放在请求绑定的库里（租户库或主库）
type RoleService struct {
	seq     *database.Sequencer
	modules *ModuleService
}

func NewRoleService(seq *database.Sequencer, modules *ModuleService) *RoleService {
	return &RoleService{seq: seq, modules: modules}
}

// ========== 基础CRUD方法 ==========

// List 分页获取有效角色，最新的在前
func (s *RoleService) List(ctx context.Context, db *gorm.DB, page *pagination.PageParams) ([]models.Role, int64, error) {
	var (
		roles []models.Role
		total int64
	)
	query := db.WithContext(ctx).Model(&models.Role{}).Where("status = ?", models.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.GetOffset()).Limit(page.Limit).
		Find(&roles).Error
	return roles, total, err
}

// Get 按 roleId 获取有效角色
func (s *RoleService) Get(ctx context.Context, db *gorm.DB, roleID string) (*models.Role, error) {
	var role models.Role
	err := db.WithContext(ctx).
		Where("role_id = ? AND status = ?", roleID, models.StatusActive).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	return &role, err
}

// GetAny 不带状态过滤，软删除的角色同样可以取到
func (s *RoleService) GetAny(ctx context.Context, db *gorm.DB, roleID string) (*models.Role, error) {
	var role models.Role
	err := db.WithContext(ctx).Where("role_id = ?", roleID).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	return &role, err
}

// Create 创建角色；重名由唯一索引判定，不做事先查询
func (s *RoleService) Create(ctx context.Context, db *gorm.DB, in RoleInput, actor string) (*models.Role, error) {
	name, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	n, err := s.seq.Next(ctx, "role")
	if err != nil {
		return nil, err
	}
	role := &models.Role{
		BaseModel:   models.BaseModel{ID: uint64(n)},
		RoleID:      database.FormatID("role", n),
		RoleName:    name,
		Description: strings.TrimSpace(in.Description),
		Permissions: in.Permissions,
		Audit:       models.Audit{CreatedBy: actor},
	}
	if err := db.WithContext(ctx).Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoleAlreadyExists
		}
		return nil, err
	}
	return role, nil
}

// Update 更新角色名称、描述和权限
func (s *RoleService) Update(ctx context.Context, db *gorm.DB, roleID string, in RoleInput, actor string) (*models.Role, error) {
	name, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	role, err := s.Get(ctx, db, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, ErrSystemRole
	}

	role.RoleName = name
	role.Description = strings.TrimSpace(in.Description)
	role.Permissions = in.Permissions
	role.Audit.UpdatedBy = actor

	err = db.WithContext(ctx).Model(role).
		Select("role_name", "description", "permissions", "audit_updated_by").
		Updates(role).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrRoleAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Delete 软删除，已失效的角色返回 400
func (s *RoleService) Delete(ctx context.Context, db *gorm.DB, roleID, actor string) error {
	role, err := s.GetAny(ctx, db, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	return softDelete(ctx, db, &models.Role{}, "role_id", roleID, auditUpdate(actor), ErrRoleNotFound, ErrRoleInactive)
}

// ========== 验证方法 ==========

// validate 角色名只允许大写字母和空格；权限不能为空且引用的模块必须有效
func (s *RoleService) validate(ctx context.Context, in RoleInput) (string, error) {
	name := strings.TrimSpace(in.RoleName)
	if name == "" {
		return "", apperrors.Validation("Role name is required")
	}
	if !roleNamePattern.MatchString(name) {
		return "", apperrors.Validation("Role name must contain only uppercase letters and spaces")
	}
	if len(in.Permissions) == 0 {
		return "", apperrors.Validation("Permissions are required")
	}

	ids := make([]string, 0, len(in.Permissions))
	seen := make(map[string]struct{}, len(in.Permissions))
	for _, p := range in.Permissions {
		if p.ModuleID == "" {
			return "", apperrors.Validation("Each permission must have a moduleId")
		}
		switch p.AccessType {
		case models.AccessView, models.AccessAdd, models.AccessEdit, models.AccessDelete, models.AccessAll:
		default:
			return "", apperrors.Validation("Invalid accessType %q for module %s", p.AccessType, p.ModuleID)
		}
		if p.CanAccess != 0 && p.CanAccess != 1 {
			return "", apperrors.Validation("canAccess must be 0 or 1")
		}
		if _, ok := seen[p.ModuleID]; !ok {
			seen[p.ModuleID] = struct{}{}
			ids = append(ids, p.ModuleID)
		}
	}

	missing, err := s.modules.MissingModules(ctx, ids)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", apperrors.Validation("Invalid moduleId: %s", strings.Join(missing, ", "))
	}
	return name, nil
}
