package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Points    int        `gorm:"not null;default:0;check:chk_users_points,points >= 0" json:"points"`
	LastLogin *time.Time `gorm:"type:date" json:"lastLogin"` // 最近一次获得登录奖励的日期
}

func (User) TableName() string {
	return "users"
}
