package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MasterUser 主库中的统一身份记录，超级管理员、租户所有者、租户用户都落在这张表
type MasterUser struct {
	BaseModel
	Key                 string     `json:"key" gorm:"column:user_key;size:64;uniqueIndex"`
	SupID               string     `json:"supId,omitempty" gorm:"size:32;index"`
	TenantID            string     `json:"tenantId,omitempty" gorm:"size:32;index"`
	BdmID               string     `json:"bdmId,omitempty" gorm:"size:32;index"`
	UserID              string     `json:"userId,omitempty" gorm:"size:32;index"`
	RoleID              string     `json:"roleId" gorm:"size:64"`
	TenantKey           *string    `json:"tenantKey,omitempty" gorm:"size:64;index"` // 所属租户的内部标识，超级管理员为空
	IsSuperAdmin        bool       `json:"isSuperAdmin" gorm:"default:false"`
	IsTenant            bool       `json:"isTenant" gorm:"default:false"`
	IsTenantUser        bool       `json:"isTenantUser" gorm:"default:false"`
	IsBusinessDeveloper bool       `json:"isBusinessDeveloper" gorm:"default:false"`
	Email               string     `json:"email" gorm:"size:100;index:idx_master_users_active_email,unique,where:status = 1"`
	PasswordHash        string     `json:"-" gorm:"size:255"`
	RefreshToken        string     `json:"-" gorm:"size:512"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	Status              Status     `json:"status" gorm:"default:1;index"`
}

func (MasterUser) TableName() string {
	return "master_users"
}

// Identity 返回当前身份类型对应的业务ID
func (u *MasterUser) Identity() string {
	switch {
	case u.IsSuperAdmin:
		return u.SupID
	case u.IsTenant:
		return u.TenantID
	case u.IsBusinessDeveloper:
		return u.BdmID
	default:
		return u.UserID
	}
}

// TenantScope 令牌中携带的租户标识，超级管理员返回空串
func (u *MasterUser) TenantScope() string {
	if u.TenantKey == nil {
		return ""
	}
	return *u.TenantKey
}

// SetPassword 设置密码
func (u *MasterUser) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *MasterUser) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
