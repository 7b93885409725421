package repository

import (
	"campus_share_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type PointLogRepository struct {
	DB *gorm.DB
}

func NewPointLogRepository(db *gorm.DB) *PointLogRepository {
	return &PointLogRepository{DB: db}
}

func (r *PointLogRepository) WithTx(tx *gorm.DB) *PointLogRepository {
	return &PointLogRepository{DB: tx}
}

func (r *PointLogRepository) Create(ctx context.Context, log *model.PointLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *PointLogRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.PointLog, int64, error) {
	var logs []model.PointLog
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.PointLog{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}

// SumByUser 流水合计，应当等于当前余额
func (r *PointLogRepository) SumByUser(ctx context.Context, userID uint) (int, error) {
	var sum int
	err := r.DB.WithContext(ctx).Model(&model.PointLog{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
