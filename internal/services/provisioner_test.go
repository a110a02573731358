package services_test

import (
	"context"
	"errors"
	"testing"

	"mtrbac/internal/database/dbtest"
	"mtrbac/internal/models"
	"mtrbac/internal/services"
	apperrors "mtrbac/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioner_CreatesCatalogAndSeeds(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := services.NewProvisioner(env.Registry, env.Sequencer)

	require.NoError(t, p.Provision(ctx, tenantKey))
	assert.True(t, env.Connector.Exists(tenantKey))

	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	for _, tpl := range models.Templates(models.ScopeTenant) {
		assert.True(t, db.Migrator().HasTable(tpl.Kind), tpl.Kind)
	}

	var roleIDs []string
	require.NoError(t, db.Model(&models.Role{}).Order("id").Pluck("role_id", &roleIDs).Error)
	assert.Equal(t, []string{models.RoleTenantAdmin, models.RoleTenantUser}, roleIDs)

	// 没有默认数据的表写一条 ID 为 0 的占位记录
	var feature models.Feature
	require.NoError(t, db.First(&feature).Error)
	assert.Zero(t, feature.ID)
	assert.NotNil(t, feature.InitializedAt)
	assert.Equal(t, int64(1), countRows(t, db, "features"))
}

func TestProvisioner_Idempotent(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := services.NewProvisioner(env.Registry, env.Sequencer)

	require.NoError(t, p.Provision(ctx, tenantKey))
	require.NoError(t, p.Provision(ctx, tenantKey))

	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, db, "roles"))
	assert.Equal(t, int64(1), countRows(t, db, "admins"))
}

func TestProvisioner_RepairsMissingCollection(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := services.NewProvisioner(env.Registry, env.Sequencer)
	require.NoError(t, p.Provision(ctx, tenantKey))

	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable("features"))

	require.NoError(t, p.Provision(ctx, tenantKey))
	assert.True(t, db.Migrator().HasTable("features"))
	assert.Equal(t, int64(1), countRows(t, db, "features"))
	assert.Equal(t, int64(2), countRows(t, db, "roles"))
}

func TestProvisioner_ConnectionFailure(t *testing.T) {
	env := newEnv(t)
	env.Connector.Fail = func(name string) error {
		if name == tenantKey {
			return errors.New("connection refused")
		}
		return nil
	}
	p := services.NewProvisioner(env.Registry, env.Sequencer)

	err := p.Provision(context.Background(), tenantKey)
	assert.ErrorIs(t, err, apperrors.ErrTenantConnectionFailed)
}

func TestProvisioner_ProvisionAllSkipsInactive(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	active := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	inactive := "cccccccccccccccccccccccccccccccc"
	insertTenant(t, env.Main, 1, active[0], models.StatusActive)
	insertTenant(t, env.Main, 2, active[1], models.StatusActive)
	insertTenant(t, env.Main, 3, inactive, models.StatusInactive)

	p := services.NewProvisioner(env.Registry, env.Sequencer)
	require.NoError(t, p.ProvisionAll(ctx))

	for _, key := range active {
		assert.True(t, env.Connector.Exists(key), key)
	}
	assert.False(t, env.Connector.Exists(inactive))
	assert.Equal(t, 2, env.Registry.Len())
}

// breakSequences 让主库序列不可用，返回恢复函数
func breakSequences(t *testing.T, env *dbtest.Env) func() {
	t.Helper()
	require.NoError(t, env.Main.Migrator().RenameTable("counters", "counters_offline"))
	return func() {
		require.NoError(t, env.Main.Migrator().RenameTable("counters_offline", "counters"))
	}
}

func TestProvisioner_ContinuesPastFailingCollection(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := services.NewProvisioner(env.Registry, env.Sequencer)

	restore := breakSequences(t, env)
	err := p.Provision(ctx, tenantKey)
	restore()

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProvisioningFailed)
	assert.ErrorIs(t, err, apperrors.ErrSequenceGenerationFailed)
	assert.Contains(t, err.Error(), "roles")

	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	// 只有需要序列的角色表失败，其余表照常建好
	for _, tpl := range models.Templates(models.ScopeTenant) {
		if tpl.Kind == "roles" {
			continue
		}
		assert.True(t, db.Migrator().HasTable(tpl.Kind), tpl.Kind)
		assert.Equal(t, int64(1), countRows(t, db, tpl.Kind), tpl.Kind)
	}
	// 失败的表整体回滚，不留空表
	assert.False(t, db.Migrator().HasTable("roles"))
}

func TestProvisioner_RetryAfterFailedSeed(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := services.NewProvisioner(env.Registry, env.Sequencer)

	restore := breakSequences(t, env)
	require.Error(t, p.Provision(ctx, tenantKey))
	restore()

	require.NoError(t, p.Provision(ctx, tenantKey))

	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	var roleIDs []string
	require.NoError(t, db.Model(&models.Role{}).Order("id").Pluck("role_id", &roleIDs).Error)
	assert.Equal(t, []string{models.RoleTenantAdmin, models.RoleTenantUser}, roleIDs)
}

func TestProvisioner_SeedsEmptyExistingCollection(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	db, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	require.NoError(t, db.Migrator().CreateTable(&models.Role{}))

	p := services.NewProvisioner(env.Registry, env.Sequencer)
	require.NoError(t, p.Provision(ctx, tenantKey))

	assert.Equal(t, int64(2), countRows(t, db, "roles"))
}
