package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
)

// 令牌的 cookie 与请求头
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	RefreshTokenHeader = "X-Refresh-Token"
	AccessTokenHeader  = "X-Access-Token"
)

// 访问令牌过期后最多刷新一次
const maxRefreshAttempts = 1

// Refresher 用刷新令牌换新的访问令牌
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, *jwt.Claims, error)
}

// AuthMiddleware 登录校验
type AuthMiddleware struct {
	jwtManager   *jwt.JWTManager
	refresher    Refresher
	cookieSecure bool
}

func NewAuthMiddleware(jwtManager *jwt.JWTManager, refresher Refresher, cookieSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		refresher:    refresher,
		cookieSecure: cookieSecure,
	}
}

// RequireLogin 有效则放行；过期则用刷新令牌换一次再校验一次；无效或缺失直接 401
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.authenticate(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (*jwt.Claims, error) {
	token := accessTokenFrom(c)
	if token == "" {
		return nil, apperrors.ErrMissingToken
	}

	for attempt := 0; ; attempt++ {
		claims, err := m.jwtManager.Verify(jwt.TokenAccess, token)
		if err == nil {
			if attempt > 0 {
				m.issueAccessToken(c, token)
			}
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) || attempt >= maxRefreshAttempts {
			return nil, apperrors.ErrInvalidToken.WithCause(err)
		}

		refresh := refreshTokenFrom(c)
		if refresh == "" {
			return nil, apperrors.ErrInvalidToken.WithCause(err)
		}
		token, _, err = m.refresher.Refresh(c.Request.Context(), refresh)
		if err != nil {
			return nil, apperrors.ErrInvalidToken.WithCause(err)
		}
	}
}

// SetSessionCookies 登录成功后写入两个 HttpOnly cookie
func (m *AuthMiddleware) SetSessionCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, access, int(m.jwtManager.Duration(jwt.TokenAccess).Seconds()), "/", "", m.cookieSecure, true)
	c.SetCookie(RefreshTokenCookie, refresh, int(m.jwtManager.Duration(jwt.TokenRefresh).Seconds()), "/", "", m.cookieSecure, true)
}

// ClearSessionCookies 登出时清除 cookie
func (m *AuthMiddleware) ClearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", m.cookieSecure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", m.cookieSecure, true)
}

func (m *AuthMiddleware) issueAccessToken(c *gin.Context, access string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, access, int(m.jwtManager.Duration(jwt.TokenAccess).Seconds()), "/", "", m.cookieSecure, true)
	c.Header(AccessTokenHeader, access)
}

// accessTokenFrom cookie 优先，其次 Authorization: Bearer
func accessTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(RefreshTokenCookie); err == nil && v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(RefreshTokenHeader))
}
