package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"mtrbac/internal/database"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/mailer"
	"mtrbac/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10,12}$`)
)

const passwordSpecials = "@$!%*?&"

var (
	ErrTenantNotFound      = apperrors.NotFound("Tenant not found")
	ErrTenantAlreadyExists = apperrors.Conflict("Email or Company Name with this domain already exists")
	ErrTenantInactive      = apperrors.Validation("Tenant is already inactive")
	ErrPasswordNotEditable = apperrors.Validation("Password cannot be updated using this route")
	ErrInvalidVerifyToken  = apperrors.Auth("Invalid or expired verification link")
)

// RegisterTenantInput 租户注册参数
type RegisterTenantInput struct {
	TenantName         string
	CompanyName        string
	CompanySize        string
	RegistrationNumber string
	Country            string
	IndustryType       string
	Email              string
	Password           string
	Phone              string
	Address            string
}

// UpdateTenantInput 只更新非 nil 字段
type UpdateTenantInput struct {
	TenantName         *string
	CompanySize        *string
	RegistrationNumber *string
	Country            *string
	IndustryType       *string
	Phone              *string
	Address            *string
	Password           *string // 只用于拒绝修改密码
}

// TenantService 租户注册、验证与管理
type TenantService struct {
	registry     *database.Registry
	seq          *database.Sequencer
	provisioner  *Provisioner
	jwtManager   *jwt.JWTManager
	mail         mailer.Sender
	verifyURL    string
	domainSuffix string
}

func NewTenantService(registry *database.Registry, seq *database.Sequencer, provisioner *Provisioner,
	jwtManager *jwt.JWTManager, mail mailer.Sender, verifyURL, domainSuffix string) *TenantService {
	return &TenantService{
		registry:     registry,
		seq:          seq,
		provisioner:  provisioner,
		jwtManager:   jwtManager,
		mail:         mail,
		verifyURL:    verifyURL,
		domainSuffix: domainSuffix,
	}
}

// ========== 注册 ==========

// Register 创建租户和所有者身份，开通租户库，写入租户管理员资料并发送验证邮件
func (s *TenantService) Register(ctx context.Context, in RegisterTenantInput, actor string) (*models.Tenant, error) {
	if err := ValidateRegistration(in); err != nil {
		return nil, err
	}
	mainDB := s.registry.Main()

	n, err := s.seq.Next(ctx, "tenant")
	if err != nil {
		return nil, err
	}
	key := NewTenantKey()
	companyName := strings.TrimSpace(in.CompanyName)

	tenant := &models.Tenant{
		BaseModel:          models.BaseModel{ID: uint64(n)},
		Key:                key,
		TenantID:           database.FormatID("tenant", n),
		TenantName:         strings.TrimSpace(in.TenantName),
		CompanyName:        companyName,
		Domain:             DomainFor(companyName, s.domainSuffix),
		CompanySize:        in.CompanySize,
		RegistrationNumber: in.RegistrationNumber,
		Country:            in.Country,
		IndustryType:       in.IndustryType,
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              in.Phone,
		Address:            in.Address,
		RoleID:             models.RoleTenantAdmin,
		Audit:              models.Audit{CreatedBy: actor},
	}

	owner := &models.MasterUser{
		Key:       uuid.NewString(),
		TenantID:  tenant.TenantID,
		RoleID:    models.RoleTenantAdmin,
		TenantKey: &key,
		IsTenant:  true,
		Email:     tenant.Email,
	}
	if err := owner.SetPassword(in.Password); err != nil {
		return nil, err
	}
	tenant.PasswordHash = owner.PasswordHash

	ownerSeq, err := s.seq.Next(ctx, "master_user")
	if err != nil {
		return nil, err
	}
	owner.ID = uint64(ownerSeq)

	// 租户和所有者身份要么都写入要么都不写入；唯一索引冲突即重复注册
	err = mainDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrTenantAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	tenantLogger := logger.WithTenant(key)
	tenantLogger.Infof("Tenant registered: %s", tenant.TenantID)

	if err := s.provisioner.Provision(ctx, key); err != nil {
		return tenant, err
	}
	if err := s.createAdminProfile(ctx, tenant); err != nil {
		return tenant, err
	}

	s.sendVerification(ctx, tenant)
	return tenant, nil
}

func (s *TenantService) createAdminProfile(ctx context.Context, tenant *models.Tenant) error {
	db, err := s.registry.Tenant(ctx, tenant.Key)
	if err != nil {
		return err
	}
	n, err := s.seq.Next(ctx, "admin")
	if err != nil {
		return err
	}
	admin := &models.Admin{
		BaseModel: models.BaseModel{ID: uint64(n)},
		AdminID:   database.FormatID("admin", n),
		TenantID:  tenant.TenantID,
		Name:      tenant.TenantName,
		Email:     tenant.Email,
		Phone:     tenant.Phone,
		RoleID:    models.RoleTenantAdmin,
	}
	return db.WithContext(ctx).Create(admin).Error
}

// sendVerification 发信失败不影响注册结果
func (s *TenantService) sendVerification(ctx context.Context, tenant *models.Tenant) {
	tenantLogger := logger.WithTenant(tenant.Key)

	token, err := s.jwtManager.Generate(jwt.TokenVerify, jwt.Subject{UserID: tenant.TenantID, TenantKey: tenant.Key})
	if err != nil {
		tenantLogger.Errorf("Failed to generate verification token: %v", err)
		return
	}
	link := s.verifyURL + "?token=" + token
	msg, err := mailer.VerificationEmail(tenant.Email, tenant.TenantName, tenant.CompanyName, link,
		s.jwtManager.Duration(jwt.TokenVerify).String())
	if err != nil {
		tenantLogger.Errorf("Failed to render verification email: %v", err)
		return
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		tenantLogger.Errorf("Failed to send verification email: %v", err)
	}
}

// Verify 校验邮件中的令牌并标记租户已验证
func (s *TenantService) Verify(ctx context.Context, token string) (*models.Tenant, error) {
	claims, err := s.jwtManager.Verify(jwt.TokenVerify, token)
	if err != nil {
		return nil, ErrInvalidVerifyToken.WithCause(err)
	}

	mainDB := s.registry.Main().WithContext(ctx)
	res := mainDB.Model(&models.Tenant{}).
		Where("tenant_key = ? AND status = ?", claims.TenantKey, models.StatusActive).
		Update("is_verified", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTenantNotFound
	}

	var tenant models.Tenant
	if err := mainDB.Where("tenant_key = ?", claims.TenantKey).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ========== 租户管理 ==========

// List 分页获取有效租户
func (s *TenantService) List(ctx context.Context, page *pagination.PageParams) ([]models.Tenant, int64, error) {
	var (
		tenants []models.Tenant
		total   int64
	)
	query := s.registry.Main().WithContext(ctx).Model(&models.Tenant{}).Where("status = ?", models.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(page.GetOffset()).Limit(page.Limit).Find(&tenants).Error
	return tenants, total, err
}

// Get 按 tenantId 获取有效租户
func (s *TenantService) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.registry.Main().WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.StatusActive).
		First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	return &tenant, err
}

// ActiveByKey 按内部标识查有效租户，租户路由使用
func (s *TenantService) ActiveByKey(ctx context.Context, key string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.registry.Main().WithContext(ctx).
		Where("tenant_key = ? AND status = ?", key, models.StatusActive).
		First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTenantNotFoundOrInactive
	}
	return &tenant, err
}

// Update 更新租户资料，密码不允许通过此接口修改
func (s *TenantService) Update(ctx context.Context, tenantID string, in UpdateTenantInput, actor string) (*models.Tenant, error) {
	if in.Password != nil {
		return nil, ErrPasswordNotEditable
	}
	if err := validateTenantUpdate(in); err != nil {
		return nil, err
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"audit_updated_by": actor}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("tenant_name", in.TenantName)
	set("company_size", in.CompanySize)
	set("registration_number", in.RegistrationNumber)
	set("country", in.Country)
	set("industry_type", in.IndustryType)
	set("phone", in.Phone)
	set("address", in.Address)

	if err := s.registry.Main().WithContext(ctx).Model(tenant).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID)
}

// Delete 软删除租户，同时停用其下所有身份
func (s *TenantService) Delete(ctx context.Context, tenantID, actor string) error {
	var tenant models.Tenant
	mainDB := s.registry.Main()
	err := mainDB.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTenantNotFound
	}
	if err != nil {
		return err
	}

	return mainDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete(ctx, tx, &models.Tenant{}, "tenant_id", tenantID, auditUpdate(actor), ErrTenantNotFound, ErrTenantInactive); err != nil {
			return err
		}
		_, err := setStatus(ctx, tx, &models.MasterUser{}, "tenant_key", tenant.Key,
			models.StatusActive, models.StatusInactive, map[string]interface{}{"refresh_token": ""})
		return err
	})
}

// ========== 校验方法 ==========

// NewTenantKey 租户内部标识：去掉连字符的 UUID，同时作为逻辑库名
func NewTenantKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DomainFor 公司名第一个单词小写加域名后缀
func DomainFor(companyName, suffix string) string {
	fields := strings.Fields(companyName)
	if len(fields) == 0 {
		return suffix
	}
	return strings.ToLower(fields[0]) + suffix
}

// ValidateRegistration 注册参数校验
func ValidateRegistration(in RegisterTenantInput) error {
	required := []string{in.TenantName, in.CompanyName, in.CompanySize, in.RegistrationNumber, in.Country,
		in.IndustryType, in.Email, in.Password, in.Phone, in.Address}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return apperrors.Validation("All fields are required")
		}
	}
	if strings.IndexFunc(in.TenantName, unicode.IsDigit) >= 0 {
		return apperrors.Validation("Tenant name should not contain numbers")
	}
	if err := validateCompanySize(in.CompanySize); err != nil {
		return err
	}
	if err := validateCountry(in.Country); err != nil {
		return err
	}
	if !emailPattern.MatchString(in.Email) {
		return apperrors.Validation("Invalid email format")
	}
	if !ValidPassword(in.Password) {
		return apperrors.Validation("Password must be 10-15 characters with letters, numbers, and a special character")
	}
	if !phonePattern.MatchString(in.Phone) {
		return apperrors.Validation("Phone number must be 10-12 digits")
	}
	return nil
}

// ValidPassword 10-15 位，只含字母、数字和 @$!%*?&，且三类字符都要有
func ValidPassword(pw string) bool {
	if len(pw) < 10 || len(pw) > 15 {
		return false
	}
	var letter, digit, special bool
	for _, r := range pw {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}

func validateCompanySize(size string) error {
	switch size {
	case models.CompanySizeSmall, models.CompanySizeMedium, models.CompanySizeLarge:
		return nil
	}
	return apperrors.Validation("Company size must be Small, Medium, or Large")
}

func validateCountry(country string) error {
	if country == "" || country[0] < 'A' || country[0] > 'Z' {
		return apperrors.Validation("Country name must start with a capital letter.")
	}
	return nil
}

func validateTenantUpdate(in UpdateTenantInput) error {
	if in.TenantName != nil && strings.IndexFunc(*in.TenantName, unicode.IsDigit) >= 0 {
		return apperrors.Validation("Tenant name should not contain numbers")
	}
	if in.CompanySize != nil {
		if err := validateCompanySize(*in.CompanySize); err != nil {
			return err
		}
	}
	if in.Country != nil {
		if err := validateCountry(*in.Country); err != nil {
			return err
		}
	}
	if in.Phone != nil && !phonePattern.MatchString(*in.Phone) {
		return apperrors.Validation("Phone number must be 10-12 digits")
	}
	return nil
}
