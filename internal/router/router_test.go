package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mtrbac/internal/database/dbtest"
	"mtrbac/internal/handlers"
	"mtrbac/internal/middleware"
	"mtrbac/internal/models"
	"mtrbac/internal/router"
	"mtrbac/internal/services"
	"mtrbac/pkg/config"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/mailer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registrationKey = "let-me-in"

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t      *testing.T
	engine *gin.Engine
}

func (c *client) call(method, path, token string, body interface{}, headers ...string) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (c *client) login(path, email, password string) (string, jwt.Claims) {
	c.t.Helper()
	code, env := c.call(http.MethodPost, path, "", gin.H{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, code, env.Message)

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(c.t, result.AccessToken)

	claims, err := jwt.NewJWTManager(testConfig().JWT).Verify(jwt.TokenAccess, result.AccessToken)
	require.NoError(c.t, err)
	return result.AccessToken, *claims
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessDuration:  15 * time.Minute,
			RefreshDuration: 24 * time.Hour,
			VerifyDuration:  time.Hour,
		},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Authorization", "Content-Type"},
		},
	}
}

// newServer 组装与 cmd/server 相同的依赖，主库已写入系统模块和超级管理员角色
func newServer(t *testing.T) (*client, *dbtest.Env) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := dbtest.New(t)
	ctx := context.Background()

	for _, m := range models.SystemModules {
		n, err := env.Sequencer.Next(ctx, "module")
		require.NoError(t, err)
		m.ID = uint64(n)
		require.NoError(t, env.Main.Create(&m).Error)
	}
	n, err := env.Sequencer.Next(ctx, "role")
	require.NoError(t, err)
	superRole := &models.Role{
		RoleID:   models.RoleSuperAdmin,
		RoleName: "Super Admin",
		Permissions: []models.Permission{
			{ModuleID: models.AllModule, AccessType: models.AccessAll, CanAccess: 1},
		},
		IsSystem: true,
		Status:   models.StatusActive,
	}
	superRole.ID = uint64(n)
	require.NoError(t, env.Main.Create(superRole).Error)

	cfg := testConfig()
	jwtManager := jwt.NewJWTManager(cfg.JWT)
	provisioner := services.NewProvisioner(env.Registry, env.Sequencer)
	activity := services.NewActivityRecorder(env.Main, env.Sequencer, nil)

	authService := services.NewAuthService(env.Main, env.Sequencer, jwtManager, registrationKey)
	tenantService := services.NewTenantService(env.Registry, env.Sequencer, provisioner, jwtManager,
		&mailer.LogSender{}, "http://localhost/api/verify-tenant", ".example.com/")
	moduleService := services.NewModuleService(env.Main, env.Sequencer)
	roleService := services.NewRoleService(env.Sequencer, moduleService)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, authService, false)

	engine := router.SetupRouter(router.Deps{
		Config:     cfg,
		Tenant:     middleware.NewTenantMiddleware(env.Registry, tenantService),
		Auth:       authMiddleware,
		Permission: middleware.NewPermissionMiddleware(env.Registry, services.NewEvaluator()),
		System:     handlers.NewSystemHandler(env.Registry),
		Tenants:    handlers.NewTenantHandler(tenantService, activity),
		Session:    handlers.NewAuthHandler(authService, authMiddleware, activity),
		Roles:      handlers.NewRoleHandler(roleService, activity),
		Modules:    handlers.NewModuleHandler(moduleService, activity),
	})
	return &client{t: t, engine: engine}, env
}

func registerTenant(t *testing.T, c *client) string {
	t.Helper()
	code, env := c.call(http.MethodPost, "/api/tenant-register", "", gin.H{
		"tenantName":         "Jane Owner",
		"companyName":        "Acme Corp",
		"companySize":        models.CompanySizeSmall,
		"registrationNumber": "REG-1",
		"country":            "India",
		"industryType":       "Retail",
		"email_id":           "owner@acme.com",
		"password":           "Secret@1234",
		"phone_number":       "9876543210",
		"address":            "1 Main St",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, "Tenant registered successfully", env.Message)

	var data struct {
		TenantID  string `json:"tenantId"`
		TenantKey string `json:"tenantKey"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "tenant_001", data.TenantID)
	require.Len(t, data.TenantKey, 32)
	return data.TenantKey
}

func TestHealth(t *testing.T) {
	c, _ := newServer(t)
	code, env := c.call(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"tenantConnections":0}`, string(env.Data))
}

func TestTenantRoleLifecycle(t *testing.T) {
	c, env := newServer(t)
	key := registerTenant(t, c)
	token, claims := c.login("/api/tenant-login", "owner@acme.com", "Secret@1234")
	assert.Equal(t, key, claims.TenantKey)
	assert.Equal(t, models.RoleTenantAdmin, claims.RoleID)

	base := "/api/tenant/" + key

	code, resp := c.call(http.MethodGet, base+"/get-roles", token, nil)
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, resp = c.call(http.MethodPost, base+"/create-role", token, gin.H{
		"roleName":    "AUDITOR",
		"description": "read only",
		"permissions": []gin.H{{"moduleId": models.ModuleRoles, "accessType": "view", "canAccess": 1}},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var role models.Role
	require.NoError(t, json.Unmarshal(resp.Data, &role))
	assert.Equal(t, "AUDITOR", role.RoleName)

	// 角色写入租户库，主库中没有
	var inMain int64
	require.NoError(t, env.Main.Model(&models.Role{}).Where("role_id = ?", role.RoleID).Count(&inMain).Error)
	assert.Zero(t, inMain)

	code, _ = c.call(http.MethodGet, base+"/get-role/"+role.RoleID, token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = c.call(http.MethodPost, base+"/create-role", token, gin.H{
		"roleName":    "AUDITOR",
		"permissions": []gin.H{{"moduleId": models.ModuleRoles, "accessType": "view", "canAccess": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, code, resp.Message)

	code, _ = c.call(http.MethodDelete, base+"/delete-role/"+role.RoleID, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.call(http.MethodGet, base+"/get-role/"+role.RoleID, token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = c.call(http.MethodPost, "/api/tenant-logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logout successful", resp.Message)
}

func TestTenantIsolation(t *testing.T) {
	c, _ := newServer(t)
	key := registerTenant(t, c)
	token, _ := c.login("/api/tenant-login", "owner@acme.com", "Secret@1234")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/tenant/" + key + "/get-roles", "", http.StatusUnauthorized},
		{"unknown tenant", http.MethodGet, "/api/tenant/fedcba9876543210fedcba9876543210/get-roles", token, http.StatusNotFound},
		{"main via sentinel", http.MethodGet, "/api/tenant/1/get-roles", token, http.StatusForbidden},
		{"module catalog readable", http.MethodGet, "/api/get-modules", token, http.StatusOK},
		{"module catalog not writable", http.MethodPost, "/api/create-module", token, http.StatusForbidden},
		{"tenant management", http.MethodGet, "/api/tenants", token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.method == http.MethodPost {
				body = gin.H{"moduleName": "BILLING"}
			}
			code, resp := c.call(tt.method, tt.path, tt.token, body)
			assert.Equal(t, tt.want, code, resp.Message)
		})
	}
}

func TestSuperAdminFlow(t *testing.T) {
	c, _ := newServer(t)
	registerTenant(t, c)

	admin := gin.H{"name": "Root", "email_id": "root@example.com", "phone_number": "9876543210", "password": "Secret@1234"}
	code, _ := c.call(http.MethodPost, "/api/superadmin-register", "", admin, handlers.RegistrationKeyHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := c.call(http.MethodPost, "/api/superadmin-register", "", admin, handlers.RegistrationKeyHeader, registrationKey)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	token, claims := c.login("/api/superadmin-login", "root@example.com", "Secret@1234")
	assert.Empty(t, claims.TenantKey)

	code, resp = c.call(http.MethodPost, "/api/create-module", token, gin.H{"moduleName": "BILLING", "description": "invoices"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var module models.ModuleName
	require.NoError(t, json.Unmarshal(resp.Data, &module))
	assert.Equal(t, "module_007", module.ModuleID)

	code, _ = c.call(http.MethodGet, "/api/tenant/1/get-roles", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = c.call(http.MethodGet, "/api/tenants", token, nil)
	require.Equal(t, http.StatusOK, code, resp.Message)
	code, _ = c.call(http.MethodGet, "/api/tenants/tenant_001", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.call(http.MethodDelete, "/api/tenants/tenant_001", token, nil)
	assert.Equal(t, http.StatusOK, code)

	// 停用的租户无法再登录
	code, _ = c.call(http.MethodPost, "/api/tenant-login", "", gin.H{"email": "owner@acme.com", "password": "Secret@1234"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.call(http.MethodPost, "/api/superadmin-logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestTenantRoutesAuthenticateBeforeLookup(t *testing.T) {
	c, env := newServer(t)
	key := registerTenant(t, c)
	before := env.Connector.Opens()
	cached := env.Registry.Len()

	// 已存在和不存在的租户对未登录请求返回同样的结果
	for _, path := range []string{
		"/api/tenant/" + key + "/get-roles",
		"/api/tenant/fedcba9876543210fedcba9876543210/get-roles",
	} {
		code, resp := c.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "Unauthorized: No token provided", resp.Message, path)
	}
	assert.Equal(t, before, env.Connector.Opens())
	assert.Equal(t, cached, env.Registry.Len())
}
