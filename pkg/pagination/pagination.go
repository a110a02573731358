package pagination

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageParams 分页参数
type PageParams struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageInfo 分页信息
type PageInfo struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

// 分页配置
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrInvalidPageParams = errors.New("page and limit must be valid positive numbers")

// ParsePageParams 从请求中解析分页参数，非法值直接报错而不是静默修正
func ParsePageParams(c *gin.Context) (*PageParams, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page < 1 {
		return nil, ErrInvalidPageParams
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 {
		return nil, ErrInvalidPageParams
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return &PageParams{Page: page, Limit: limit}, nil
}

// NewPageInfo 计算分页信息
func NewPageInfo(p *PageParams, total int64) *PageInfo {
	return &PageInfo{
		Page:         p.Page,
		Limit:        p.Limit,
		TotalRecords: total,
		TotalPages:   int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// GetOffset 计算offset
func (p *PageParams) GetOffset() int {
	return (p.Page - 1) * p.Limit
}
