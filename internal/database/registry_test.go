package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mtrbac/internal/database"
	"mtrbac/internal/database/dbtest"
	apperrors "mtrbac/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const tenantKey = "0123456789abcdef0123456789abcdef"

func TestRegistry_MainSentinel(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()

	for _, key := range []string{"1", ""} {
		db, err := env.Registry.Tenant(ctx, key)
		require.NoError(t, err)
		assert.Same(t, env.Main, db)
	}
	assert.Equal(t, 0, env.Registry.Len())
}

func TestRegistry_CachesTenantConnection(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()
	before := env.Connector.Opens()

	first, err := env.Registry.Tenant(ctx, tenantKey)
	require.NoError(t, err)
	second, err := env.Registry.ForCaller(ctx, tenantKey)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, env.Main, first)
	assert.Equal(t, 1, env.Registry.Len())
	assert.Equal(t, before+1, env.Connector.Opens())
}

func TestRegistry_ConcurrentFirstAccessConverges(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	results := make([]*gorm.DB, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := env.Registry.Tenant(ctx, tenantKey)
			assert.NoError(t, err)
			results[i] = db
		}(i)
	}
	wg.Wait()

	for _, db := range results {
		assert.Same(t, results[0], db)
	}
	assert.Equal(t, 1, env.Registry.Len())
}

func TestRegistry_ConnectFailure(t *testing.T) {
	env := dbtest.New(t)
	env.Connector.Fail = func(string) error { return errors.New("connection refused") }

	_, err := env.Registry.Tenant(context.Background(), tenantKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTenantConnectionFailed)
	assert.Equal(t, apperrors.KindConnection, apperrors.KindOf(err))
	assert.Equal(t, 0, env.Registry.Len())

	// 失败不会被缓存，恢复后可以重新连接
	env.Connector.Fail = nil
	db, err := env.Registry.Tenant(context.Background(), tenantKey)
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestRegistry_CreateTenantDatabase(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, env.Registry.CreateTenantDatabase(ctx, tenantKey))
	require.NoError(t, env.Registry.CreateTenantDatabase(ctx, tenantKey))
	assert.True(t, env.Connector.Exists(tenantKey))
}

func TestIsMainKey(t *testing.T) {
	assert.True(t, database.IsMainKey("1"))
	assert.True(t, database.IsMainKey(""))
	assert.False(t, database.IsMainKey(tenantKey))
}
