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

type ModuleRequest struct {
	ModuleName  string `json:"moduleName" binding:"required"`
	Description string `json:"description"`
}

type ModuleHandler struct {
	service  *services.ModuleService
	activity *services.ActivityRecorder
}

func NewModuleHandler(service *services.ModuleService, activity *services.ActivityRecorder) *ModuleHandler {
	return &ModuleHandler{service: service, activity: activity}
}

// List 分页获取模块
func (h *ModuleHandler) List(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	modules, total, err := h.service.List(c.Request.Context(), page)
	record(c, h.activity, models.ActivityGetModules, "Fetched modules", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, modules, pagination.NewPageInfo(page, total))
}

// GetByID 获取模块
func (h *ModuleHandler) GetByID(c *gin.Context) {
	module, err := h.service.Get(c.Request.Context(), c.Param("moduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, module)
}

// Create 创建模块
func (h *ModuleHandler) Create(c *gin.Context) {
	var req ModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.service.Create(c.Request.Context(),
		services.ModuleInput{ModuleName: req.ModuleName, Description: req.Description}, middleware.Actor(c))
	record(c, h.activity, models.ActivityCreateModule, "Create module "+req.ModuleName, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, "Module created successfully", module)
}

// Update 更新模块
func (h *ModuleHandler) Update(c *gin.Context) {
	var req ModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	moduleID := c.Param("moduleId")
	module, err := h.service.Update(c.Request.Context(), moduleID,
		services.ModuleInput{ModuleName: req.ModuleName, Description: req.Description}, middleware.Actor(c))
	record(c, h.activity, models.ActivityUpdateModule, "Update module "+moduleID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Module updated successfully", module)
}

// Delete 软删除模块
func (h *ModuleHandler) Delete(c *gin.Context) {
	moduleID := c.Param("moduleId")
	err := h.service.Delete(c.Request.Context(), moduleID, middleware.Actor(c))
	record(c, h.activity, models.ActivityDeleteModule, "Delete module "+moduleID, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Module deleted successfully", nil)
}
