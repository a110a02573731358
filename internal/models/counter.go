package models

import "time"

// Counter 序列计数器，每个序列名一行，只通过原子自增修改
type Counter struct {
	ID    string `json:"id" gorm:"primaryKey;size:64"`
	Value int64  `json:"value" gorm:"not null;default:0"`
}

func (Counter) TableName() string {
	return "counters"
}

// Seed 计数器不写种子数据
func (*Counter) Seed(uint64, time.Time) {}
