package models

import "gorm.io/datatypes"

// 权限动作
const (
	AccessView   = "view"
	AccessAdd    = "add"
	AccessEdit   = "edit"
	AccessDelete = "delete"
	AccessAll    = "all"
)

// AllModule 全局授权的保留模块
const AllModule = "ALL_MODULE"

// 系统预置角色
const (
	RoleSuperAdmin  = "role_super_admin"  // 主库
	RoleTenantAdmin = "role_tenant_admin" // 租户库
	RoleTenantUser  = "role_tenant_user"  // 租户库
)

// Permission 单条权限
type Permission struct {
	ModuleID   string `json:"moduleId" binding:"required"`
	AccessType string `json:"accessType" binding:"required,oneof=view add edit delete all"`
	CanAccess  int    `json:"canAccess" binding:"oneof=0 1"`
}

// Granted 是否授予
func (p Permission) Granted() bool {
	return p.CanAccess == 1
}

// Role 角色模型
type Role struct {
	BaseModel
	RoleID      string                        `json:"roleId" gorm:"size:64;uniqueIndex"`
	RoleName    string                        `json:"roleName" gorm:"size:100;index:idx_roles_active_name,unique,where:status = 1"`
	Description string                        `json:"description" gorm:"size:255"`
	Permissions datatypes.JSONSlice[Permission] `json:"permissions"`
	IsSystem    bool                          `json:"isSystem" gorm:"default:false"` // 系统角色不可删除
	Status      Status                        `json:"status" gorm:"default:1;index"`
	Audit       Audit                         `json:"audit" gorm:"embedded;embeddedPrefix:audit_"`
}

func (Role) TableName() string {
	return "roles"
}

// IsActive 是否有效
func (r *Role) IsActive() bool {
	return r.Status == StatusActive
}

// NaturalKey 业务主键
func (r *Role) NaturalKey() (string, string) {
	return "role_id", r.RoleID
}
