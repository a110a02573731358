package jwt

import (
	"errors"
	"fmt"
	"time"

	"mtrbac/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType 令牌用途
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenVerify  TokenType = "verify" // 租户邮箱验证
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// Claims JWT声明
type Claims struct {
	UserID    string    `json:"userId"`
	RoleID    string    `json:"roleId"`
	TenantKey string    `json:"tenantKey,omitempty"` // 空表示主库身份（超级管理员）
	Type      TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Subject 令牌主体
type Subject struct {
	UserID    string
	RoleID    string
	TenantKey string
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey []byte
	durations map[TokenType]time.Duration
	now       func() time.Time
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		secretKey: []byte(cfg.SecretKey),
		durations: map[TokenType]time.Duration{
			TokenAccess:  cfg.AccessDuration,
			TokenRefresh: cfg.RefreshDuration,
			TokenVerify:  cfg.VerifyDuration,
		},
		now: time.Now,
	}
}

// Duration 返回某类令牌的有效期
func (m *JWTManager) Duration(t TokenType) time.Duration {
	return m.durations[t]
}

// Generate 生成指定用途的令牌
func (m *JWTManager) Generate(t TokenType, sub Subject) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:    sub.UserID,
		RoleID:    sub.RoleID,
		TenantKey: sub.TenantKey,
		Type:      t,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.durations[t])),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "mtrbac",
			Subject:   sub.UserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify 验证令牌并校验用途；过期返回 ErrTokenExpired，其余失败返回 ErrTokenInvalid
func (m *JWTManager) Verify(t TokenType, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Type != t {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
