package middleware

import (
	"mtrbac/internal/models"
	"mtrbac/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
)

// RequestMetadata 解析客户端 IP 与设备信息，供活动日志使用
func RequestMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxMeta, services.RequestMeta{
			IPAddress: c.ClientIP(),
			Endpoint:  c.Request.URL.RequestURI(),
			Method:    c.Request.Method,
			Device:    ParseDevice(c.Request.UserAgent()),
		})
		c.Next()
	}
}

// ParseDevice User-Agent 转设备信息
func ParseDevice(ua string) models.DeviceInfo {
	parsed := useragent.Parse(ua)
	info := models.DeviceInfo{
		OS:         parsed.OS,
		Browser:    parsed.Name,
		DeviceName: parsed.Device,
	}
	switch {
	case parsed.Bot:
		info.DeviceType = "bot"
	case parsed.Tablet:
		info.DeviceType = "tablet"
	case parsed.Mobile:
		info.DeviceType = "mobile"
	case parsed.Desktop:
		info.DeviceType = "desktop"
	default:
		info.DeviceType = "unknown"
	}
	if info.OS == "" {
		info.OS = "unknown"
	}
	if info.Browser == "" {
		info.Browser = "unknown"
	}
	if info.DeviceName == "" {
		info.DeviceName = "unknown"
	}
	return info
}
