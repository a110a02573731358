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

type RoleRequest struct {
	RoleName    string              `json:"roleName" binding:"required"`
	Description string              `json:"description"`
	Permissions []models.Permission `json:"permissions" binding:"required,min=1,dive"`
}

func (r RoleRequest) input() services.RoleInput {
	return services.RoleInput{RoleName: r.RoleName, Description: r.Description, Permissions: r.Permissions}
}

type RoleHandler struct {
	service  *services.RoleService
	activity *services.ActivityRecorder
}

func NewRoleHandler(service *services.RoleService, activity *services.ActivityRecorder) *RoleHandler {
	return &RoleHandler{service: service, activity: activity}
}

// ========== 基础CRUD方法 ==========

// List 分页获取角色
func (h *RoleHandler) List(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}

	roles, total, err := h.service.List(c.Request.Context(), middleware.DB(c), page)
	record(c, h.activity, models.ActivityGetRoles, "Fetched roles", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, roles, pagination.NewPageInfo(page, total))
}

// GetByID 获取角色
func (h *RoleHandler) GetByID(c *gin.Context) {
	roleID := c.Param("roleId")
	role, err := h.service.Get(c.Request.Context(), middleware.DB(c), roleID)
	record(c, h.activity, models.ActivityGetRoleByID, "Fetched role "+roleID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.service.Create(c.Request.Context(), middleware.DB(c), req.input(), middleware.Actor(c))
	record(c, h.activity, models.ActivityCreateRole, "Create role "+req.RoleName, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, "Role created successfully", role)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}

	roleID := c.Param("roleId")
	role, err := h.service.Update(c.Request.Context(), middleware.DB(c), roleID, req.input(), middleware.Actor(c))
	record(c, h.activity, models.ActivityUpdateRole, "Update role "+roleID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Role updated successfully", role)
}

// Delete 软删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	roleID := c.Param("roleId")
	err := h.service.Delete(c.Request.Context(), middleware.DB(c), roleID, middleware.Actor(c))
	record(c, h.activity, models.ActivityDeleteRole, "Delete role "+roleID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Role deleted successfully", nil)
}
