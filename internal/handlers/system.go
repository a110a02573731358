package handlers

import (
	"net/http"

	"mtrbac/internal/database"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// SystemHandler 健康检查
type SystemHandler struct {
	registry *database.Registry
}

func NewSystemHandler(registry *database.Registry) *SystemHandler {
	return &SystemHandler{registry: registry}
}

// Health 主库可用即健康
func (h *SystemHandler) Health(c *gin.Context) {
	sqlDB, err := h.registry.Main().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, "Main database unavailable")
		return
	}
	response.Success(c, gin.H{"tenantConnections": h.registry.Len()})
}
