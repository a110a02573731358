package middleware

import (
	"mtrbac/internal/database"
	"mtrbac/internal/services"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

var (
	errCrossTenant = apperrors.Forbidden("Access Denied: Tenant mismatch")
	errMainOnly    = apperrors.Forbidden("Access Denied: Super admin only")
)

// PermissionMiddleware 在 RequireLogin 之后使用
type PermissionMiddleware struct {
	registry  *database.Registry
	evaluator *services.Evaluator
}

func NewPermissionMiddleware(registry *database.Registry, evaluator *services.Evaluator) *PermissionMiddleware {
	return &PermissionMiddleware{registry: registry, evaluator: evaluator}
}

// Require 路由声明目标模块；不声明时按路径推断
func (m *PermissionMiddleware) Require(modules ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, apperrors.ErrMissingToken)
			c.Abort()
			return
		}

		// 租户身份只能访问自己的租户路径，主库路径只对超级管理员开放
		if pathKey, ok := TenantKey(c); ok && claims.TenantKey != "" && pathKey != claims.TenantKey {
			response.Error(c, errCrossTenant)
			c.Abort()
			return
		}

		targets := modules
		if len(targets) == 0 {
			targets = []string{services.ModuleFromPath(c.Request.URL.Path)}
		}

		ctx := c.Request.Context()
		db, err := m.registry.ForCaller(ctx, claims.TenantKey)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if err := m.evaluator.Authorize(ctx, db, claims.RoleID, targets, c.Request.Method); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// MainOnly 只允许主库身份（超级管理员），租户角色中的 ALL_MODULE 不能越过这里
func (m *PermissionMiddleware) MainOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, apperrors.ErrMissingToken)
			c.Abort()
			return
		}
		if !database.IsMainKey(claims.TenantKey) {
			response.Error(c, errMainOnly)
			c.Abort()
			return
		}
		c.Next()
	}
}
