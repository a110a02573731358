package router

import (
	"mtrbac/internal/handlers"
	"mtrbac/internal/middleware"
	"mtrbac/internal/models"
	"mtrbac/pkg/config"
	"mtrbac/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Deps 路由依赖的处理器和中间件，由 cmd/server 组装
type Deps struct {
	Config     *config.Config
	Tenant     *middleware.TenantMiddleware
	Auth       *middleware.AuthMiddleware
	Permission *middleware.PermissionMiddleware

	System  *handlers.SystemHandler
	Tenants *handlers.TenantHandler
	Session *handlers.AuthHandler
	Roles   *handlers.RoleHandler
	Modules *handlers.ModuleHandler
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SetupCORS(d.Config.CORS))
	router.Use(middleware.RequestMetadata())

	if d.Config.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	registerRoutes(router, d)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, d Deps) {
	api := router.Group("/api")
	api.GET("/health", d.System.Health)

	// 租户注册与登录（无需认证）
	api.POST("/tenant-register", d.Tenants.Register)
	api.GET("/verify-tenant", d.Tenants.Verify)
	api.POST("/tenant-login", d.Session.TenantLogin)
	api.POST("/tenant-logout", d.Auth.RequireLogin(), d.Session.TenantLogout)

	// 超级管理员
	api.POST("/superadmin-register", d.Session.RegisterSuperAdmin)
	api.POST("/superadmin-login", d.Session.SuperAdminLogin)
	api.POST("/superadmin-logout", d.Auth.RequireLogin(), d.Session.SuperAdminLogout)

	// 租户作用域：先认证，再绑定租户库，最后鉴权；未登录的请求不会触发租户查询和建连
	tenant := api.Group("/tenant/:tenantKey", d.Auth.RequireLogin(), d.Tenant.Resolve())
	{
		roles := d.Permission.Require(models.ModuleRoles)
		tenant.GET("/get-roles", roles, d.Roles.List)
		tenant.GET("/get-role/:roleId", roles, d.Roles.GetByID)
		tenant.POST("/create-role", roles, d.Roles.Create)
		tenant.PUT("/update-role/:roleId", roles, d.Roles.Update)
		tenant.DELETE("/delete-role/:roleId", roles, d.Roles.Delete)
	}

	// 模块目录在主库；租户身份只能读取，增删改仅限超级管理员
	modules := api.Group("", d.Auth.RequireLogin(), d.Permission.Require(models.ModuleModules))
	{
		mainOnly := d.Permission.MainOnly()
		modules.GET("/get-modules", d.Modules.List)
		modules.GET("/get-module/:moduleId", d.Modules.GetByID)
		modules.POST("/create-module", mainOnly, d.Modules.Create)
		modules.PUT("/update-module/:moduleId", mainOnly, d.Modules.Update)
		modules.DELETE("/delete-module/:moduleId", mainOnly, d.Modules.Delete)
	}

	// 租户管理
	manage := api.Group("/tenants", d.Auth.RequireLogin(), d.Permission.MainOnly(),
		d.Permission.Require(models.ModuleTenants))
	{
		manage.GET("", d.Tenants.List)
		manage.GET("/:tenantId", d.Tenants.GetByID)
		manage.PUT("/:tenantId", d.Tenants.Update)
		manage.DELETE("/:tenantId", d.Tenants.Delete)
	}
}
