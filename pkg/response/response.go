package response

import (
	"net/http"

	"mtrbac/pkg/errors"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// Response 统一返回格式，status 与 HTTP 状态码一致
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ========== 基础返回方法 ==========

func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, "success", data)
}

// SuccessWithMessage 成功返回（自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Created 创建成功
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// SuccessWithPage 分页成功返回
func SuccessWithPage(c *gin.Context, data interface{}, pageInfo *pagination.PageInfo) {
	c.JSON(http.StatusOK, Response{
		Status:  http.StatusOK,
		Message: "success",
		Data:    data,
		Meta:    pageInfo,
	})
}

// Fail 通用错误返回
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Status:  status,
		Message: message,
	})
}

// Error 按错误分类返回；内部错误只记录日志，对外统一提示
func Error(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := kind.HTTPStatus()

	var appErr *errors.AppError
	if kind == errors.KindInternal || !errors.As(err, &appErr) {
		logger.GetLogger().WithField("path", c.Request.URL.Path).Errorf("Request failed: %v", err)
		Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithFields(map[string]interface{}{
			"path": c.Request.URL.Path,
			"kind": kind.String(),
		}).Errorf("Request failed: %v", err)
	}
	Fail(c, status, appErr.Message)
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message)
}

func ServerError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, message)
}
