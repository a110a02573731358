package middleware

import (
	"mtrbac/pkg/logger"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorHandler 捕获 panic，对外只返回通用 500
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithField("path", c.Request.URL.Path).Errorf("Panic recovered: %v", err)
				response.ServerError(c, "Internal Server Error")
				c.Abort()
			}
		}()

		c.Next()
	}
}
