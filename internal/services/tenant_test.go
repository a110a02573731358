package services_test

import (
	"context"
	"testing"

	"mtrbac/internal/database/dbtest"
	"mtrbac/internal/models"
	"mtrbac/internal/services"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() services.RegisterTenantInput {
	return services.RegisterTenantInput{
		TenantName:         "Jane Owner",
		CompanyName:        "Acme Corp",
		CompanySize:        models.CompanySizeSmall,
		RegistrationNumber: "REG-1",
		Country:            "India",
		IndustryType:       "Retail",
		Email:              "Owner@Acme.com",
		Password:           "Secret@1234",
		Phone:              "9876543210",
		Address:            "1 Main St",
	}
}

func newTenantService(env *dbtest.Env, sender mailer.Sender, jwtManager *jwt.JWTManager) *services.TenantService {
	return services.NewTenantService(env.Registry, env.Sequencer,
		services.NewProvisioner(env.Registry, env.Sequencer), jwtManager, sender,
		"http://localhost/api/verify-tenant", ".example.com/")
}

func TestTenantService_Register(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	sender := &mailer.LogSender{}
	s := newTenantService(env, sender, newJWT())

	tenant, err := s.Register(ctx, validRegistration(), "system")
	require.NoError(t, err)

	assert.Equal(t, "tenant_001", tenant.TenantID)
	assert.Len(t, tenant.Key, 32)
	assert.Equal(t, "acme.example.com/", tenant.Domain)
	assert.Equal(t, "owner@acme.com", tenant.Email)
	assert.Equal(t, models.RoleTenantAdmin, tenant.RoleID)
	assert.False(t, tenant.IsVerified)

	// 租户库已开通
	assert.True(t, env.Connector.Exists(tenant.Key))
	db, err := env.Registry.Tenant(ctx, tenant.Key)
	require.NoError(t, err)
	for _, tpl := range models.Templates(models.ScopeTenant) {
		assert.True(t, db.Migrator().HasTable(tpl.Kind), tpl.Kind)
	}

	var admin models.Admin
	require.NoError(t, db.Where("admin_id = ?", "admin_001").First(&admin).Error)
	assert.Equal(t, tenant.TenantID, admin.TenantID)
	assert.Equal(t, models.RoleTenantAdmin, admin.RoleID)

	// 所有者身份在主库
	var owner models.MasterUser
	require.NoError(t, env.Main.Where("email = ?", "owner@acme.com").First(&owner).Error)
	assert.Equal(t, models.RoleTenantAdmin, owner.RoleID)
	assert.Equal(t, tenant.Key, owner.TenantScope())
	assert.True(t, owner.IsTenant)
	assert.True(t, owner.CheckPassword("Secret@1234"))

	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "owner@acme.com", sender.Sent[0].To)
	assert.Contains(t, sender.Sent[0].HTMLBody, "http://localhost/api/verify-tenant?token=")
}

func TestTenantService_RegisterDuplicate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	s := newTenantService(env, &mailer.LogSender{}, newJWT())

	_, err := s.Register(ctx, validRegistration(), "system")
	require.NoError(t, err)

	sameEmail := validRegistration()
	sameEmail.CompanyName = "Other Corp"
	_, err = s.Register(ctx, sameEmail, "system")
	assert.ErrorIs(t, err, services.ErrTenantAlreadyExists)

	sameCompany := validRegistration()
	sameCompany.Email = "second@acme.com"
	_, err = s.Register(ctx, sameCompany, "system")
	assert.ErrorIs(t, err, services.ErrTenantAlreadyExists)

	var count int64
	require.NoError(t, env.Main.Model(&models.Tenant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTenantService_Verify(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	jwtManager := newJWT()
	s := newTenantService(env, &mailer.LogSender{}, jwtManager)

	tenant, err := s.Register(ctx, validRegistration(), "system")
	require.NoError(t, err)

	token, err := jwtManager.Generate(jwt.TokenVerify, jwt.Subject{UserID: tenant.TenantID, TenantKey: tenant.Key})
	require.NoError(t, err)
	verified, err := s.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	access, err := jwtManager.Generate(jwt.TokenAccess, jwt.Subject{TenantKey: tenant.Key})
	require.NoError(t, err)
	_, err = s.Verify(ctx, access)
	assert.ErrorIs(t, err, services.ErrInvalidVerifyToken)
}

func TestTenantService_UpdateAndDelete(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	s := newTenantService(env, &mailer.LogSender{}, newJWT())

	tenant, err := s.Register(ctx, validRegistration(), "system")
	require.NoError(t, err)

	name := "Janet Owner"
	size := models.CompanySizeLarge
	updated, err := s.Update(ctx, tenant.TenantID, services.UpdateTenantInput{TenantName: &name, CompanySize: &size}, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "Janet Owner", updated.TenantName)
	assert.Equal(t, models.CompanySizeLarge, updated.CompanySize)
	assert.Equal(t, "Acme Corp", updated.CompanyName)

	pw := "Another@1234"
	_, err = s.Update(ctx, tenant.TenantID, services.UpdateTenantInput{Password: &pw}, "sup-1")
	assert.ErrorIs(t, err, services.ErrPasswordNotEditable)

	bad := "Huge"
	_, err = s.Update(ctx, tenant.TenantID, services.UpdateTenantInput{CompanySize: &bad}, "sup-1")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, s.Delete(ctx, tenant.TenantID, "sup-1"))
	assert.ErrorIs(t, s.Delete(ctx, tenant.TenantID, "sup-1"), services.ErrTenantInactive)
	assert.ErrorIs(t, s.Delete(ctx, "tenant_404", "sup-1"), services.ErrTenantNotFound)

	_, err = s.ActiveByKey(ctx, tenant.Key)
	assert.ErrorIs(t, err, apperrors.ErrTenantNotFoundOrInactive)
	_, err = s.Get(ctx, tenant.TenantID)
	assert.ErrorIs(t, err, services.ErrTenantNotFound)

	var owner models.MasterUser
	require.NoError(t, env.Main.Where("tenant_key = ?", tenant.Key).First(&owner).Error)
	assert.Equal(t, models.StatusInactive, owner.Status)

	// 停用后同名公司可以重新注册
	again := validRegistration()
	_, err = s.Register(ctx, again, "system")
	assert.NoError(t, err)
}

func TestTenantService_List(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	s := newTenantService(env, &mailer.LogSender{}, newJWT())

	first := validRegistration()
	_, err := s.Register(ctx, first, "system")
	require.NoError(t, err)
	second := validRegistration()
	second.CompanyName = "Globex Inc"
	second.Email = "owner@globex.com"
	_, err = s.Register(ctx, second, "system")
	require.NoError(t, err)

	tenants, total, err := s.List(ctx, firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "tenant_002", tenants[0].TenantID)
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*services.RegisterTenantInput)
	}{
		{"missing field", func(in *services.RegisterTenantInput) { in.Address = " " }},
		{"digits in tenant name", func(in *services.RegisterTenantInput) { in.TenantName = "Jane 2" }},
		{"company size", func(in *services.RegisterTenantInput) { in.CompanySize = "Tiny" }},
		{"country case", func(in *services.RegisterTenantInput) { in.Country = "india" }},
		{"email", func(in *services.RegisterTenantInput) { in.Email = "owner.acme.com" }},
		{"short password", func(in *services.RegisterTenantInput) { in.Password = "Ab@12345" }},
		{"password without special", func(in *services.RegisterTenantInput) { in.Password = "Secret12345" }},
		{"password with space", func(in *services.RegisterTenantInput) { in.Password = "Secret @1234" }},
		{"phone", func(in *services.RegisterTenantInput) { in.Phone = "12345" }},
	}
	require.NoError(t, services.ValidateRegistration(validRegistration()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(services.ValidateRegistration(in)))
		})
	}
}

func TestDomainForAndTenantKey(t *testing.T) {
	assert.Equal(t, "acme.example.com/", services.DomainFor("  Acme Corp ", ".example.com/"))
	assert.Equal(t, ".example.com/", services.DomainFor("", ".example.com/"))

	key := services.NewTenantKey()
	assert.Regexp(t, `^[0-9a-f]{32}$`, key)
	assert.NotEqual(t, key, services.NewTenantKey())
}
