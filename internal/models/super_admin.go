package models

// SuperAdmin 超级管理员资料，仅存在于主库；登录凭据在 MasterUser
type SuperAdmin struct {
	BaseModel
	SupID  string `json:"supId" gorm:"size:32;uniqueIndex"`
	Name   string `json:"name" gorm:"size:100"`
	Email  string `json:"email" gorm:"size:100;index"`
	Phone  string `json:"phone" gorm:"size:20"`
	Status Status `json:"status" gorm:"default:1;index"`
}

func (SuperAdmin) TableName() string {
	return "super_admins"
}
