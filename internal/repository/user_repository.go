package repository

import (
	"campus_share_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

// LockByID SELECT ... FOR UPDATE，必须在事务内调用
func (r *UserRepository) LockByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error
	return &user, err
}

// Debit 条件扣减，余额不足时影响行数为 0
func (r *UserRepository) Debit(ctx context.Context, userID uint, amount int) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	return result.RowsAffected, result.Error
}

func (r *UserRepository) Credit(ctx context.Context, userID uint, amount int) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	return result.RowsAffected, result.Error
}

// CreditLoginBonus 比较并设置：今天尚未领取时才加分并记录日期
func (r *UserRepository) CreditLoginBonus(ctx context.Context, userID uint, amount int, today time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND (last_login IS NULL OR last_login < ?)", userID, today).
		Updates(map[string]interface{}{
			"points":     gorm.Expr("points + ?", amount),
			"last_login": today,
		})
	return result.RowsAffected, result.Error
}

func (r *UserRepository) Points(ctx context.Context, userID uint) (int, error) {
	var points int
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Select("points").
		Scan(&points).Error
	return points, err
}
