package model

import "time"

// DownloadRecord 下载凭证：存在即代表用户已为该资料付费
type DownloadRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_download_user_resource" json:"userId"`
	ResourceID uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_download_user_resource;index" json:"resourceId"`
	Resource   Resource  `gorm:"foreignKey:ResourceID" json:"-"`
	Charged    int       `gorm:"not null;default:0" json:"charged"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (DownloadRecord) TableName() string {
	return "download_records"
}

// Like 点赞记录，likes 计数与记录数保持一致
type Like struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_like_user_resource" json:"userId"`
	ResourceID uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_like_user_resource;index" json:"resourceId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Like) TableName() string {
	return "likes"
}

// Favorite 收藏记录（没有聚合计数）
type Favorite struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_favorite_user_resource" json:"userId"`
	ResourceID uint      `gorm:"not null;type:bigint unsigned;uniqueIndex:idx_favorite_user_resource;index" json:"resourceId"`
	Resource   Resource  `gorm:"foreignKey:ResourceID" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Favorite) TableName() string {
	return "favorites"
}
