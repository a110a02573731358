package models

// ModuleName 可授权资源目录，Role.Permissions[].ModuleID 引用 ModuleID
type ModuleName struct {
	BaseModel
	ModuleID    string `json:"moduleId" gorm:"size:64;uniqueIndex"`
	ModuleName  string `json:"moduleName" gorm:"size:100;index:idx_module_names_active_name,unique,where:status = 1"`
	Description string `json:"description" gorm:"size:255"`
	IsSystem    bool   `json:"isSystem" gorm:"default:false"`
	Status      Status `json:"status" gorm:"default:1;index"`
	Audit       Audit  `json:"audit" gorm:"embedded;embeddedPrefix:audit_"`
}

func (ModuleName) TableName() string {
	return "module_names"
}

func (m *ModuleName) NaturalKey() (string, string) {
	return "module_id", m.ModuleID
}

// 系统模块，ModuleID 与编码相同
const (
	ModuleRoles      = "ROLES"
	ModuleModules    = "MODULES"
	ModuleTenants    = "TENANTS"
	ModuleSuperAdmin = "SUPER_ADMIN"
	ModuleActivities = "ACTIVITIES"
)

// SystemModules 启动时写入主库的系统模块
var SystemModules = []ModuleName{
	{ModuleID: AllModule, ModuleName: AllModule, Description: "全部模块", IsSystem: true},
	{ModuleID: ModuleRoles, ModuleName: ModuleRoles, Description: "角色管理", IsSystem: true},
	{ModuleID: ModuleModules, ModuleName: ModuleModules, Description: "模块管理", IsSystem: true},
	{ModuleID: ModuleTenants, ModuleName: ModuleTenants, Description: "租户管理", IsSystem: true},
	{ModuleID: ModuleSuperAdmin, ModuleName: ModuleSuperAdmin, Description: "超级管理员", IsSystem: true},
	{ModuleID: ModuleActivities, ModuleName: ModuleActivities, Description: "操作日志", IsSystem: true},
}
