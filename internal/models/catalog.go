package models

import "time"

// Scope 表所在的库
type Scope uint8

const (
	ScopeMain Scope = 1 << iota
	ScopeTenant
)

// Has 是否包含某个库
func (s Scope) Has(o Scope) bool {
	return s&o != 0
}

// Seedable 可写入种子数据的模型
type Seedable interface {
	Seed(id uint64, at time.Time)
}

// Template 表模板：表名、所在库、构造函数和默认数据
type Template struct {
	Kind     string // 表名
	Seq      string // 序列名，为空时取表名
	Scope    Scope
	New      func() Seedable
	Defaults func(Scope) []Seedable // 为空或返回空切片时写入占位记录
}

// Sequence 种子数据使用的序列名
func (t Template) Sequence() string {
	if t.Seq != "" {
		return t.Seq
	}
	return t.Kind
}

// Catalog 全部表的静态注册表
var Catalog = []Template{
	{Kind: "counters", Scope: ScopeMain, New: func() Seedable { return &Counter{} }},
	{Kind: "tenants", Scope: ScopeMain, New: func() Seedable { return &Tenant{} }},
	{Kind: "master_users", Scope: ScopeMain, New: func() Seedable { return &MasterUser{} }},
	{Kind: "super_admins", Scope: ScopeMain, New: func() Seedable { return &SuperAdmin{} }},
	{Kind: "module_names", Seq: "module", Scope: ScopeMain, New: func() Seedable { return &ModuleName{} }, Defaults: defaultModules},
	{Kind: "roles", Seq: "role", Scope: ScopeMain | ScopeTenant, New: func() Seedable { return &Role{} }, Defaults: defaultRoles},
	{Kind: "user_activities", Seq: "activity", Scope: ScopeMain | ScopeTenant, New: func() Seedable { return &UserActivity{} }},
	{Kind: "admins", Seq: "admin", Scope: ScopeTenant, New: func() Seedable { return &Admin{} }},
	{Kind: "users", Seq: "user", Scope: ScopeTenant, New: func() Seedable { return &User{} }},
	{Kind: "user_profiles", Scope: ScopeTenant, New: func() Seedable { return &UserProfile{} }},
	{Kind: "features", Scope: ScopeTenant, New: func() Seedable { return &Feature{} }},
	{Kind: "business_developers", Scope: ScopeTenant, New: func() Seedable { return &BusinessDeveloper{} }},
}

// Templates 返回指定库的模板，保持注册顺序
func Templates(scope Scope) []Template {
	out := make([]Template, 0, len(Catalog))
	for _, t := range Catalog {
		if t.Scope.Has(scope) {
			out = append(out, t)
		}
	}
	return out
}

// Models 返回指定库的模型实例，供 AutoMigrate 使用
func Models(scope Scope) []interface{} {
	ts := Templates(scope)
	out := make([]interface{}, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.New())
	}
	return out
}

func defaultModules(scope Scope) []Seedable {
	if !scope.Has(ScopeMain) {
		return nil
	}
	out := make([]Seedable, 0, len(SystemModules))
	for _, m := range SystemModules {
		out = append(out, &m)
	}
	return out
}

func defaultRoles(scope Scope) []Seedable {
	if scope.Has(ScopeMain) {
		return []Seedable{&Role{
			RoleID:      RoleSuperAdmin,
			RoleName:    "SUPER ADMIN",
			Description: "平台超级管理员",
			Permissions: []Permission{{ModuleID: AllModule, AccessType: AccessAll, CanAccess: 1}},
			IsSystem:    true,
		}}
	}
	return []Seedable{
		&Role{
			RoleID:      RoleTenantAdmin,
			RoleName:    "TENANT ADMIN",
			Description: "租户管理员",
			Permissions: []Permission{{ModuleID: AllModule, AccessType: AccessAll, CanAccess: 1}},
			IsSystem:    true,
		},
		&Role{
			RoleID:      RoleTenantUser,
			RoleName:    "TENANT USER",
			Description: "租户普通用户",
			Permissions: []Permission{{ModuleID: ModuleRoles, AccessType: AccessView, CanAccess: 1}},
			IsSystem:    true,
		},
	}
}
