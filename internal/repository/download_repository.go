package repository

import (
	"campus_share_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type DownloadRepository struct {
	DB *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{DB: db}
}

func (r *DownloadRepository) WithTx(tx *gorm.DB) *DownloadRepository {
	return &DownloadRepository{DB: tx}
}

// Exists 下载凭证是否存在，即用户是否已获得该资料
func (r *DownloadRepository) Exists(ctx context.Context, userID, resourceID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.DownloadRecord{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&count).Error
	return count > 0, err
}

func (r *DownloadRepository) Create(ctx context.Context, record *model.DownloadRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

// ListByUser 下载历史，按时间倒序
func (r *DownloadRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.DownloadRecord, int64, error) {
	var records []model.DownloadRecord
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.DownloadRecord{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Resource.Uploader").
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error
	return records, total, err
}

func (r *DownloadRepository) CountByResource(ctx context.Context, resourceID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.DownloadRecord{}).
		Where("resource_id = ?", resourceID).
		Count(&count).Error
	return count, err
}
