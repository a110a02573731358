package models

import (
	"fmt"
	"time"
)

// BaseModel 基础模型；ID 由序列生成器分配，不走数据库自增
type BaseModel struct {
	ID            uint64     `json:"id" gorm:"primarykey;autoIncrement:false"`
	InitializedAt *time.Time `json:"initializedAt,omitempty"` // 仅由租户开通时的种子数据写入
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Seed 写入序列ID与开通时间戳
func (b *BaseModel) Seed(id uint64, at time.Time) {
	b.ID = id
	b.InitializedAt = &at
}

// Audit 审计字段
type Audit struct {
	CreatedBy string `json:"createdBy" gorm:"size:64"`
	UpdatedBy string `json:"updatedBy,omitempty" gorm:"size:64"`
}

// Status 软删除状态
type Status int

const (
	StatusInactive Status = 0
	StatusActive   Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid 是否是已知状态
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ErrInvalidTransition 非法的状态迁移
type ErrInvalidTransition struct {
	From, To Status
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// Transition 校验状态迁移：只允许 active <-> inactive 之间切换
func (s Status) Transition(to Status) error {
	if !s.Valid() || !to.Valid() || s == to {
		return ErrInvalidTransition{From: s, To: to}
	}
	return nil
}
