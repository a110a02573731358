package handlers

import (
	"net/http"

	"mtrbac/internal/middleware"
	"mtrbac/internal/models"
	"mtrbac/internal/services"
	"mtrbac/pkg/pagination"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegisterTenantRequest 字段名沿用前端已有的 email_id / phone_number
type RegisterTenantRequest struct {
	TenantName         string `json:"tenantName"`
	CompanyName        string `json:"companyName"`
	CompanySize        string `json:"companySize"`
	RegistrationNumber string `json:"registrationNumber"`
	Country            string `json:"country"`
	IndustryType       string `json:"industryType"`
	Email              string `json:"email_id"`
	Password           string `json:"password"`
	Phone              string `json:"phone_number"`
	Address            string `json:"address"`
}

type UpdateTenantRequest struct {
	TenantName         *string `json:"tenantName"`
	CompanySize        *string `json:"companySize"`
	RegistrationNumber *string `json:"registrationNumber"`
	Country            *string `json:"country"`
	IndustryType       *string `json:"industryType"`
	Phone              *string `json:"phone_number"`
	Address            *string `json:"address"`
	Password           *string `json:"password"`
}

type TenantHandler struct {
	service  *services.TenantService
	activity *services.ActivityRecorder
}

func NewTenantHandler(service *services.TenantService, activity *services.ActivityRecorder) *TenantHandler {
	return &TenantHandler{service: service, activity: activity}
}

// Register 租户注册
func (h *TenantHandler) Register(c *gin.Context) {
	var req RegisterTenantRequest
	if !bindJSON(c, &req) {
		return
	}

	tenant, err := h.service.Register(c.Request.Context(), services.RegisterTenantInput{
		TenantName:         req.TenantName,
		CompanyName:        req.CompanyName,
		CompanySize:        req.CompanySize,
		RegistrationNumber: req.RegistrationNumber,
		Country:            req.Country,
		IndustryType:       req.IndustryType,
		Email:              req.Email,
		Password:           req.Password,
		Phone:              req.Phone,
		Address:            req.Address,
	}, middleware.Actor(c))
	record(c, h.activity, models.ActivityRegisterTenant, "Register tenant: "+req.CompanyName, err)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, "Tenant registered successfully", gin.H{
		"tenantId":  tenant.TenantID,
		"tenantKey": tenant.Key,
		"domain":    tenant.Domain,
	})
}

// Verify 邮箱验证链接
func (h *TenantHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "Verification token is required")
		return
	}
	tenant, err := h.service.Verify(c.Request.Context(), token)
	record(c, h.activity, models.ActivityVerifyTenant, "Verify tenant email", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Email verified successfully", gin.H{"tenantId": tenant.TenantID})
}

// ========== 租户管理 ==========

// List 分页获取租户
func (h *TenantHandler) List(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	tenants, total, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(page, total))
}

// GetByID 按 tenantId 获取租户
func (h *TenantHandler) GetByID(c *gin.Context) {
	tenant, err := h.service.Get(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tenant)
}

// Update 更新租户资料
func (h *TenantHandler) Update(c *gin.Context) {
	var req UpdateTenantRequest
	if !bindJSON(c, &req) {
		return
	}
	tenantID := c.Param("tenantId")
	tenant, err := h.service.Update(c.Request.Context(), tenantID, services.UpdateTenantInput{
		TenantName:         req.TenantName,
		CompanySize:        req.CompanySize,
		RegistrationNumber: req.RegistrationNumber,
		Country:            req.Country,
		IndustryType:       req.IndustryType,
		Phone:              req.Phone,
		Address:            req.Address,
		Password:           req.Password,
	}, middleware.Actor(c))
	record(c, h.activity, models.ActivityUpdateTenant, "Update tenant "+tenantID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tenant updated successfully", tenant)
}

// Delete 软删除租户
func (h *TenantHandler) Delete(c *gin.Context) {
	tenantID := c.Param("tenantId")
	err := h.service.Delete(c.Request.Context(), tenantID, middleware.Actor(c))
	record(c, h.activity, models.ActivityDeleteTenant, "Delete tenant "+tenantID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tenant deleted successfully", nil)
}
