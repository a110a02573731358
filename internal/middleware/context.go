package middleware

import (
	"mtrbac/internal/services"
	"mtrbac/pkg/jwt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// gin 上下文中的键
const (
	ctxDB        = "mtrbac.db"
	ctxTenantKey = "mtrbac.tenantKey"
	ctxClaims    = "mtrbac.claims"
	ctxMeta      = "mtrbac.meta"
)

// DB 租户路由绑定的库
func DB(c *gin.Context) *gorm.DB {
	if v, ok := c.Get(ctxDB); ok {
		if db, ok := v.(*gorm.DB); ok {
			return db
		}
	}
	return nil
}

// TenantKey 路径中的租户标识
func TenantKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTenantKey)
	if !ok {
		return "", false
	}
	key, ok := v.(string)
	return key, ok
}

// Claims 当前登录身份
func Claims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

// Actor 审计字段中的操作人
func Actor(c *gin.Context) string {
	if claims := Claims(c); claims != nil {
		return claims.UserID
	}
	return "system"
}

// Meta 请求元数据
func Meta(c *gin.Context) services.RequestMeta {
	if v, ok := c.Get(ctxMeta); ok {
		if meta, ok := v.(services.RequestMeta); ok {
			return meta
		}
	}
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		Endpoint:  c.Request.URL.RequestURI(),
		Method:    c.Request.Method,
	}
}
