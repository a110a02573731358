package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mtrbac/pkg/config"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	tenantKey  = "0123456789abcdef0123456789abcdef"
	otherKey   = "fedcba9876543210fedcba9876543210"
	testSecret = "test-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *jwt.JWTManager {
	return jwt.NewJWTManager(config.JWTConfig{
		SecretKey:       testSecret,
		AccessDuration:  15 * time.Minute,
		RefreshDuration: 24 * time.Hour,
	})
}

// expiredJWT 同一密钥，签发即过期
func expiredJWT() *jwt.JWTManager {
	return jwt.NewJWTManager(config.JWTConfig{
		SecretKey:       testSecret,
		AccessDuration:  -time.Minute,
		RefreshDuration: 24 * time.Hour,
	})
}

func token(t *testing.T, m *jwt.JWTManager, typ jwt.TokenType, sub jwt.Subject) string {
	t.Helper()
	s, err := m.Generate(typ, sub)
	require.NoError(t, err)
	return s
}

func do(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

// withClaims 模拟已通过 RequireLogin
func withClaims(claims *jwt.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK})
}
