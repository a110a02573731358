package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType 操作类型
type ActivityType string

const (
	ActivityRegisterTenant     ActivityType = "REGISTER_TENANT"
	ActivityVerifyTenant       ActivityType = "VERIFY_TENANT"
	ActivityUpdateTenant       ActivityType = "UPDATE_TENANT"
	ActivityDeleteTenant       ActivityType = "DELETE_TENANT"
	ActivityLogin              ActivityType = "LOGIN"
	ActivityLogout             ActivityType = "LOGOUT"
	ActivityCreateRole         ActivityType = "CREATE_ROLE"
	ActivityUpdateRole         ActivityType = "UPDATE_ROLE"
	ActivityDeleteRole         ActivityType = "DELETE_ROLE"
	ActivityGetRoles           ActivityType = "GET_ROLES"
	ActivityGetRoleByID        ActivityType = "GET_ROLE_BY_ID"
	ActivityCreateModule       ActivityType = "CREATE_MODULE"
	ActivityUpdateModule       ActivityType = "UPDATE_MODULE"
	ActivityDeleteModule       ActivityType = "DELETE_MODULE"
	ActivityGetModules         ActivityType = "GET_MODULES"
	ActivityRegisterSuperAdmin ActivityType = "REGISTER_SUPERADMIN"
	ActivityLoginSuperAdmin    ActivityType = "LOGIN_SUPERADMIN"
	ActivityLogoutSuperAdmin   ActivityType = "LOGOUT_SUPERADMIN"
	ActivityUnknown            ActivityType = "UNKNOWN"
)

var knownActivities = map[ActivityType]struct{}{
	ActivityRegisterTenant: {}, ActivityVerifyTenant: {}, ActivityUpdateTenant: {}, ActivityDeleteTenant: {},
	ActivityLogin: {}, ActivityLogout: {},
	ActivityCreateRole: {}, ActivityUpdateRole: {}, ActivityDeleteRole: {}, ActivityGetRoles: {}, ActivityGetRoleByID: {},
	ActivityCreateModule: {}, ActivityUpdateModule: {}, ActivityDeleteModule: {}, ActivityGetModules: {},
	ActivityRegisterSuperAdmin: {}, ActivityLoginSuperAdmin: {}, ActivityLogoutSuperAdmin: {},
}

// Normalize 未知类型归为 UNKNOWN
func (t ActivityType) Normalize() ActivityType {
	if _, ok := knownActivities[t]; ok {
		return t
	}
	return ActivityUnknown
}

// 操作结果
const (
	ActivitySuccess = "success"
	ActivityFailed  = "failed"
)

// DeviceInfo 由 User-Agent 解析出的设备信息
type DeviceInfo struct {
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	DeviceType string `json:"deviceType"`
	DeviceName string `json:"deviceName"`
}

// UserActivity 操作日志，只追加，超过保留期由定时任务清理
type UserActivity struct {
	BaseModel
	ActivityID     string                         `json:"activityId" gorm:"size:32;index"`
	UserID         string                         `json:"userId" gorm:"size:64;index"`
	TenantKey      string                         `json:"tenantKey,omitempty" gorm:"size:64;index"`
	ActivityType   ActivityType                   `json:"activityType" gorm:"size:40;index"`
	Details        string                         `json:"details" gorm:"type:text"`
	IPAddress      string                         `json:"ipAddress" gorm:"size:64"`
	DeviceInfo     datatypes.JSONType[DeviceInfo] `json:"deviceInfo"`
	Endpoint       string                         `json:"endpoint" gorm:"size:255"`
	Method         string                         `json:"method" gorm:"size:10"`
	Timestamp      time.Time                      `json:"timestamp" gorm:"column:occurred_at;index"`
	ActivityStatus string                         `json:"activityStatus" gorm:"size:10"`
	Status         Status                         `json:"status" gorm:"default:1"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}
