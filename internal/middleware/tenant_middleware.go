package middleware

import (
	"context"
	"regexp"
	"strings"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// 租户标识是 32 位十六进制或哨兵 "1"
var tenantPathPattern = regexp.MustCompile(`/tenant/([a-fA-F0-9]{32}|1)(?:/|$)`)

// TenantLookup 按内部标识查询有效租户
type TenantLookup interface {
	ActiveByKey(ctx context.Context, key string) (*models.Tenant, error)
}

// TenantMiddleware 租户路由：每个请求都重新校验租户状态，只有底层连接会被缓存
type TenantMiddleware struct {
	registry *database.Registry
	tenants  TenantLookup
}

func NewTenantMiddleware(registry *database.Registry, tenants TenantLookup) *TenantMiddleware {
	return &TenantMiddleware{registry: registry, tenants: tenants}
}

// ExtractTenantKey 从路径中取租户标识
func ExtractTenantKey(path string) (string, bool) {
	m := tenantPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Resolve 把请求绑定到租户库；哨兵绑定主库，不查租户表
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := ExtractTenantKey(c.Request.URL.Path)
		if !ok {
			response.Error(c, apperrors.ErrTenantIdentifierMissing)
			c.Abort()
			return
		}

		if database.IsMainKey(key) {
			c.Set(ctxDB, m.registry.Main())
			c.Set(ctxTenantKey, key)
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if _, err := m.tenants.ActiveByKey(ctx, key); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		db, err := m.registry.Tenant(ctx, key)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ctxDB, db)
		c.Set(ctxTenantKey, key)
		c.Next()
	}
}
