package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(ts []Template) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Kind)
	}
	return out
}

func TestTemplates_Scopes(t *testing.T) {
	tenant := kinds(Templates(ScopeTenant))
	for _, mainOnly := range []string{"counters", "tenants", "master_users", "super_admins", "module_names"} {
		assert.NotContains(t, tenant, mainOnly)
	}
	assert.Equal(t, []string{"roles", "user_activities", "admins", "users", "user_profiles", "features", "business_developers"}, tenant)

	main := kinds(Templates(ScopeMain))
	assert.Contains(t, main, "roles")
	assert.Contains(t, main, "module_names")
	assert.NotContains(t, main, "admins")
	assert.Len(t, Models(ScopeMain), len(main))
}

func TestTemplate_Sequence(t *testing.T) {
	for _, tpl := range Catalog {
		switch tpl.Kind {
		case "roles":
			assert.Equal(t, "role", tpl.Sequence())
		case "features":
			assert.Equal(t, "features", tpl.Sequence())
		}
	}
}

func TestCatalog_TableNamesMatchKinds(t *testing.T) {
	type tabler interface{ TableName() string }
	for _, tpl := range Catalog {
		m, ok := tpl.New().(tabler)
		require.True(t, ok, tpl.Kind)
		assert.Equal(t, tpl.Kind, m.TableName())
	}
}

func TestDefaultRoles(t *testing.T) {
	main := defaultRoles(ScopeMain)
	require.Len(t, main, 1)
	assert.Equal(t, RoleSuperAdmin, main[0].(*Role).RoleID)

	tenant := defaultRoles(ScopeTenant)
	require.Len(t, tenant, 2)
	assert.Equal(t, RoleTenantAdmin, tenant[0].(*Role).RoleID)
	assert.Equal(t, RoleTenantUser, tenant[1].(*Role).RoleID)

	assert.Empty(t, defaultModules(ScopeTenant))
	mods := defaultModules(ScopeMain)
	require.Len(t, mods, len(SystemModules))
	// 每个元素都是独立的副本
	mods[0].Seed(9, time.Now())
	assert.Zero(t, SystemModules[0].ID)
	assert.NotSame(t, mods[0], mods[1])
}
