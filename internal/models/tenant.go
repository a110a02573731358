package models

// Tenant 租户；Key 同时是租户逻辑库名
type Tenant struct {
	BaseModel
	Key                string `json:"key" gorm:"column:tenant_key;size:64;uniqueIndex"`
	TenantID           string `json:"tenantId" gorm:"size:32;uniqueIndex"`
	TenantName         string `json:"tenantName" gorm:"size:100"`
	CompanyName        string `json:"companyName" gorm:"size:150;index:idx_tenants_active_company,unique,where:status = 1"`
	Domain             string `json:"domain" gorm:"size:200;index:idx_tenants_active_company,unique,where:status = 1"`
	CompanySize        string `json:"companySize" gorm:"size:20"`
	RegistrationNumber string `json:"registrationNumber" gorm:"size:64"`
	Country            string `json:"country" gorm:"size:64"`
	IndustryType       string `json:"industryType" gorm:"size:64"`
	Email              string `json:"email" gorm:"size:100;index:idx_tenants_active_email,unique,where:status = 1"`
	Phone              string `json:"phone" gorm:"size:20"`
	Address            string `json:"address" gorm:"size:255"`
	PasswordHash       string `json:"-" gorm:"size:255"`
	RoleID             string `json:"roleId" gorm:"size:64"`
	IsVerified         bool   `json:"isVerified" gorm:"default:false"`
	Status             Status `json:"status" gorm:"default:1;index"`
	Audit              Audit  `json:"audit" gorm:"embedded;embeddedPrefix:audit_"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// 公司规模
const (
	CompanySizeSmall  = "Small"
	CompanySizeMedium = "Medium"
	CompanySizeLarge  = "Large"
)

// MainTenantKey 哨兵租户标识，表示“无租户”，路由到主库
const MainTenantKey = "1"
