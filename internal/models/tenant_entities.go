package models

// 以下为租户库中的业务表。字段均可为空，未带默认数据的表开通时只写入一条带时间戳的占位记录

// Admin 租户管理员资料
type Admin struct {
	BaseModel
	AdminID  string `json:"adminId" gorm:"size:32;index"`
	TenantID string `json:"tenantId" gorm:"size:32"`
	Name     string `json:"name" gorm:"size:100"`
	Email    string `json:"email" gorm:"size:100;index"`
	Phone    string `json:"phone" gorm:"size:20"`
	RoleID   string `json:"roleId" gorm:"size:64"`
	Status   Status `json:"status" gorm:"default:1;index"`
}

func (Admin) TableName() string {
	return "admins"
}

// User 租户用户
type User struct {
	BaseModel
	UserID string `json:"userId" gorm:"size:32;index"`
	Name   string `json:"name" gorm:"size:100"`
	Email  string `json:"email" gorm:"size:100;index"`
	Phone  string `json:"phone" gorm:"size:20"`
	RoleID string `json:"roleId" gorm:"size:64"`
	Status Status `json:"status" gorm:"default:1;index"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile 租户用户扩展资料
type UserProfile struct {
	BaseModel
	UserID      string `json:"userId" gorm:"size:32;index"`
	FirstName   string `json:"firstName" gorm:"size:50"`
	LastName    string `json:"lastName" gorm:"size:50"`
	Designation string `json:"designation" gorm:"size:100"`
	Avatar      string `json:"avatar" gorm:"size:255"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// Feature 租户功能开关
type Feature struct {
	BaseModel
	FeatureID   string `json:"featureId" gorm:"size:32;index"`
	Name        string `json:"name" gorm:"size:100"`
	Description string `json:"description" gorm:"size:255"`
	Enabled     bool   `json:"enabled" gorm:"default:false"`
}

func (Feature) TableName() string {
	return "features"
}

// BusinessDeveloper 商务拓展人员
type BusinessDeveloper struct {
	BaseModel
	BdmID  string `json:"bdmId" gorm:"size:32;index"`
	Name   string `json:"name" gorm:"size:100"`
	Email  string `json:"email" gorm:"size:100;index"`
	Phone  string `json:"phone" gorm:"size:20"`
	Region string `json:"region" gorm:"size:64"`
	Status Status `json:"status" gorm:"default:1;index"`
}

func (BusinessDeveloper) TableName() string {
	return "business_developers"
}
