package services_test

import (
	"context"
	"testing"
	"time"

	"mtrbac/internal/database/dbtest"
	"mtrbac/internal/models"
	"mtrbac/pkg/config"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/pagination"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const tenantKey = "0123456789abcdef0123456789abcdef"

// newEnv 主库已迁移并写入系统模块
func newEnv(t *testing.T) *dbtest.Env {
	t.Helper()
	env := dbtest.New(t)
	ctx := context.Background()
	for _, m := range models.SystemModules {
		n, err := env.Sequencer.Next(ctx, "module")
		require.NoError(t, err)
		m.ID = uint64(n)
		require.NoError(t, env.Main.Create(&m).Error)
	}
	return env
}

func newJWT() *jwt.JWTManager {
	return jwt.NewJWTManager(config.JWTConfig{
		SecretKey:       "test-secret",
		AccessDuration:  15 * time.Minute,
		RefreshDuration: 24 * time.Hour,
		VerifyDuration:  time.Hour,
	})
}

func firstPage() *pagination.PageParams {
	return &pagination.PageParams{Page: 1, Limit: 10}
}

func perm(module, access string) models.Permission {
	return models.Permission{ModuleID: module, AccessType: access, CanAccess: 1}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func insertTenant(t *testing.T, db *gorm.DB, id uint64, key string, status models.Status) {
	t.Helper()
	tenant := &models.Tenant{
		BaseModel:   models.BaseModel{ID: id},
		Key:         key,
		TenantID:    "tenant_" + key[:6],
		CompanyName: "Company " + key[:6],
		Domain:      key[:6] + ".example.com",
		Email:       key[:6] + "@example.com",
		Status:      status,
	}
	require.NoError(t, db.Create(tenant).Error)
	if status == models.StatusInactive {
		// default:1 会吞掉零值，单独更新
		require.NoError(t, db.Model(tenant).Update("status", models.StatusInactive).Error)
	}
}

