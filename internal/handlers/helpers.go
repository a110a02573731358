package handlers

import (
	"errors"
	"strings"

	"mtrbac/internal/middleware"
	"mtrbac/internal/models"
	"mtrbac/internal/services"
	"mtrbac/pkg/pagination"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON 绑定失败时返回第一条校验错误
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return "Invalid email format"
		case "oneof":
			return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		case "min", "max":
			return field + " has invalid length"
		default:
			return field + " is invalid"
		}
	}
	return "Invalid request body"
}

func pageParams(c *gin.Context) (*pagination.PageParams, bool) {
	page, err := pagination.ParsePageParams(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	return page, true
}

// record 记录活动日志，failed 为 true 时记为失败
func record(c *gin.Context, recorder *services.ActivityRecorder, typ models.ActivityType, details string, err error) {
	entry := services.ActivityEntry{
		UserID:  middleware.Actor(c),
		Type:    typ,
		Details: details,
		Meta:    middleware.Meta(c),
		Failed:  err != nil,
	}
	if key, ok := middleware.TenantKey(c); ok {
		entry.TenantKey = key
	}
	recorder.Record(c.Request.Context(), entry)
}
