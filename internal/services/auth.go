package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials     = apperrors.Auth("Invalid credentials")
	ErrRegistrationDisabled   = apperrors.Forbidden("Super admin registration is disabled")
	ErrInvalidRegistrationKey = apperrors.Forbidden("Invalid registration key")
	ErrEmailAlreadyRegistered = apperrors.Conflict("Email already registered")
	ErrRefreshRejected        = apperrors.Auth("Refresh token is invalid or revoked")
)

// LoginKind 登录入口
type LoginKind int

const (
	LoginTenant LoginKind = iota
	LoginSuperAdmin
)

// LoginResult 登录返回的令牌和身份
type LoginResult struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         *models.MasterUser `json:"user"`
}

// RegisterSuperAdminInput 超级管理员注册参数
type RegisterSuperAdminInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthService 登录、登出、刷新令牌与超级管理员注册，身份统一来自主库 MasterUser
type AuthService struct {
	db              *gorm.DB
	seq             *database.Sequencer
	jwtManager      *jwt.JWTManager
	registrationKey string
	now             func() time.Time
}

func NewAuthService(db *gorm.DB, seq *database.Sequencer, jwtManager *jwt.JWTManager, registrationKey string) *AuthService {
	return &AuthService{
		db:              db,
		seq:             seq,
		jwtManager:      jwtManager,
		registrationKey: registrationKey,
		now:             time.Now,
	}
}

// Login 校验密码后签发访问令牌和刷新令牌，刷新令牌保存在 MasterUser 上
func (s *AuthService) Login(ctx context.Context, kind LoginKind, email, password string) (*LoginResult, error) {
	query := s.db.WithContext(ctx).Where("email = ? AND status = ?", strings.ToLower(strings.TrimSpace(email)), models.StatusActive)
	if kind == LoginSuperAdmin {
		query = query.Where("is_super_admin = ?", true)
	} else {
		query = query.Where("is_super_admin = ?", false)
	}

	var user models.MasterUser
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	sub := subjectOf(&user)
	access, err := s.jwtManager.Generate(jwt.TokenAccess, sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtManager.Generate(jwt.TokenRefresh, sub)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"refresh_token": refresh,
		"last_login_at": now,
	}).Error; err != nil {
		return nil, err
	}
	user.RefreshToken = refresh
	user.LastLoginAt = &now

	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: &user}, nil
}

// Logout 清除保存的刷新令牌，之后该刷新令牌不能再换取访问令牌
func (s *AuthService) Logout(ctx context.Context, userKey string) error {
	return s.db.WithContext(ctx).Model(&models.MasterUser{}).
		Where("user_key = ?", userKey).
		Update("refresh_token", "").Error
}

// Refresh 刷新令牌必须与库中保存的一致，成功后签发新的访问令牌
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, *jwt.Claims, error) {
	claims, err := s.jwtManager.Verify(jwt.TokenRefresh, refreshToken)
	if err != nil {
		return "", nil, ErrRefreshRejected.WithCause(err)
	}

	var user models.MasterUser
	err = s.db.WithContext(ctx).
		Where("user_key = ? AND status = ?", claims.UserID, models.StatusActive).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrRefreshRejected
	}
	if err != nil {
		return "", nil, err
	}
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return "", nil, ErrRefreshRejected
	}

	access, err := s.jwtManager.Generate(jwt.TokenAccess, subjectOf(&user))
	if err != nil {
		return "", nil, err
	}
	newClaims, err := s.jwtManager.Verify(jwt.TokenAccess, access)
	if err != nil {
		return "", nil, err
	}
	return access, newClaims, nil
}

// RegisterSuperAdmin 需要与配置一致的注册口令；未配置口令时禁止注册
func (s *AuthService) RegisterSuperAdmin(ctx context.Context, in RegisterSuperAdminInput, key string) (*models.SuperAdmin, error) {
	if s.registrationKey == "" {
		return nil, ErrRegistrationDisabled
	}
	if subtle.ConstantTimeCompare([]byte(s.registrationKey), []byte(key)) != 1 {
		return nil, ErrInvalidRegistrationKey
	}
	if err := validateSuperAdmin(in); err != nil {
		return nil, err
	}

	n, err := s.seq.Next(ctx, "superadmin")
	if err != nil {
		return nil, err
	}
	userSeq, err := s.seq.Next(ctx, "master_user")
	if err != nil {
		return nil, err
	}

	admin := &models.SuperAdmin{
		BaseModel: models.BaseModel{ID: uint64(n)},
		SupID:     database.FormatID("sup", n),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     in.Phone,
	}
	user := &models.MasterUser{
		BaseModel:    models.BaseModel{ID: uint64(userSeq)},
		Key:          uuid.NewString(),
		SupID:        admin.SupID,
		RoleID:       models.RoleSuperAdmin,
		IsSuperAdmin: true,
		Email:        admin.Email,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailAlreadyRegistered
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func subjectOf(u *models.MasterUser) jwt.Subject {
	return jwt.Subject{UserID: u.Key, RoleID: u.RoleID, TenantKey: u.TenantScope()}
}

func validateSuperAdmin(in RegisterSuperAdminInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Validation("Name is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return apperrors.Validation("Invalid email format")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return apperrors.Validation("Phone number must be 10-12 digits")
	}
	if !ValidPassword(in.Password) {
		return apperrors.Validation("Password must be 10-15 characters with letters, numbers, and a special character")
	}
	return nil
}
