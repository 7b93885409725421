package model

import "time"

type PointReason string

const (
	PointReasonUpload   PointReason = "upload"
	PointReasonLogin    PointReason = "login"
	PointReasonDownload PointReason = "download"
)

// PointLog 积分流水，每次余额变动都在同一事务内写入一条
type PointLog struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint        `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Amount     int         `gorm:"not null" json:"amount"`  // 正数为收入，负数为支出
	Balance    int         `gorm:"not null" json:"balance"` // 变动后的余额
	Reason     PointReason `gorm:"size:20;not null" json:"reason"`
	ResourceID *uint       `gorm:"index;type:bigint unsigned" json:"resourceId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (PointLog) TableName() string {
	return "point_logs"
}
