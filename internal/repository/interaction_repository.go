package repository

import (
	"campus_share_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

// InteractionRepository 点赞与收藏
type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) WithTx(tx *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: tx}
}

func (r *InteractionRepository) HasLiked(ctx context.Context, userID, resourceID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&count).Error
	return count > 0, err
}

func (r *InteractionRepository) CreateLike(ctx context.Context, like *model.Like) error {
	return r.DB.WithContext(ctx).Create(like).Error
}

// DeleteLike 返回删除的行数
func (r *InteractionRepository) DeleteLike(ctx context.Context, userID, resourceID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Delete(&model.Like{})
	return result.RowsAffected, result.Error
}

func (r *InteractionRepository) CountLikes(ctx context.Context, resourceID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Like{}).
		Where("resource_id = ?", resourceID).
		Count(&count).Error
	return count, err
}

func (r *InteractionRepository) HasFavorited(ctx context.Context, userID, resourceID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&count).Error
	return count > 0, err
}

func (r *InteractionRepository) CreateFavorite(ctx context.Context, favorite *model.Favorite) error {
	return r.DB.WithContext(ctx).Create(favorite).Error
}

func (r *InteractionRepository) DeleteFavorite(ctx context.Context, userID, resourceID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Delete(&model.Favorite{})
	return result.RowsAffected, result.Error
}

// ListFavorites 用户收藏列表，按收藏时间倒序
func (r *InteractionRepository) ListFavorites(ctx context.Context, userID uint) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Resource.Uploader").
		Order("created_at DESC").
		Order("id DESC").
		Find(&favorites).Error
	return favorites, err
}
