package handlers

import (
	"net/http"

	"mtrbac/internal/middleware"
	"mtrbac/internal/models"
	"mtrbac/internal/services"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegistrationKeyHeader 超级管理员注册口令
const RegistrationKeyHeader = "X-Registration-Key"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterSuperAdminRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email_id" binding:"required,email"`
	Phone    string `json:"phone_number"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	service  *services.AuthService
	auth     *middleware.AuthMiddleware
	activity *services.ActivityRecorder
}

func NewAuthHandler(service *services.AuthService, auth *middleware.AuthMiddleware, activity *services.ActivityRecorder) *AuthHandler {
	return &AuthHandler{service: service, auth: auth, activity: activity}
}

// TenantLogin 租户所有者和租户用户登录
func (h *AuthHandler) TenantLogin(c *gin.Context) {
	h.login(c, services.LoginTenant, models.ActivityLogin)
}

// SuperAdminLogin 超级管理员登录
func (h *AuthHandler) SuperAdminLogin(c *gin.Context) {
	h.login(c, services.LoginSuperAdmin, models.ActivityLoginSuperAdmin)
}

func (h *AuthHandler) login(c *gin.Context, kind services.LoginKind, typ models.ActivityType) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), kind, req.Email, req.Password)
	if err != nil {
		record(c, h.activity, typ, "Failed login for "+req.Email, err)
		response.Error(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), services.ActivityEntry{
		UserID:    result.User.Key,
		TenantKey: result.User.TenantScope(),
		Type:      typ,
		Details:   "Successful login",
		Meta:      middleware.Meta(c),
	})
	h.auth.SetSessionCookies(c, result.AccessToken, result.RefreshToken)
	response.SuccessWithMessage(c, "Login successful", result)
}

// TenantLogout 租户登出
func (h *AuthHandler) TenantLogout(c *gin.Context) {
	h.logout(c, models.ActivityLogout)
}

// SuperAdminLogout 超级管理员登出
func (h *AuthHandler) SuperAdminLogout(c *gin.Context) {
	h.logout(c, models.ActivityLogoutSuperAdmin)
}

func (h *AuthHandler) logout(c *gin.Context, typ models.ActivityType) {
	claims := middleware.Claims(c)
	err := h.service.Logout(c.Request.Context(), claims.UserID)
	record(c, h.activity, typ, "Logout", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.auth.ClearSessionCookies(c)
	response.SuccessWithMessage(c, "Logout successful", nil)
}

// RegisterSuperAdmin 需要 X-Registration-Key
func (h *AuthHandler) RegisterSuperAdmin(c *gin.Context) {
	var req RegisterSuperAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.service.RegisterSuperAdmin(c.Request.Context(), services.RegisterSuperAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, c.GetHeader(RegistrationKeyHeader))
	record(c, h.activity, models.ActivityRegisterSuperAdmin, "Register super admin "+req.Email, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, "SuperAdmin registered successfully", admin)
}
