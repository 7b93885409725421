package repository

import (
	"campus_share_backend/internal/model"
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResourceQuery 资料列表查询条件
type ResourceQuery struct {
	Keyword    string
	Sort       string
	UploaderID uint
	Page       int
	Limit      int
}

// likeEscaper 转义 LIKE 通配符，配合 ESCAPE '!' 使用
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// 排序白名单，防止拼接任意列名
var resourceSortColumns = map[string]string{
	"new":       "created_at DESC",
	"downloads": "downloads DESC",
	"likes":     "likes DESC",
	"views":     "views DESC",
}

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func (r *ResourceRepository) WithTx(tx *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: tx}
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.DB.WithContext(ctx).Create(resource).Error
}

func (r *ResourceRepository) FindByID(ctx context.Context, id uint) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.WithContext(ctx).Preload("Uploader").First(&resource, id).Error
	return &resource, err
}

// LockByID 锁定资料行，用于点赞计数的串行化
func (r *ResourceRepository) LockByID(ctx context.Context, id uint) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&resource, id).Error
	return &resource, err
}

func (r *ResourceRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Resource{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ResourceRepository) List(ctx context.Context, q ResourceQuery) ([]model.Resource, int64, error) {
	var resources []model.Resource
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.Resource{})
	if q.Keyword != "" {
		like := "%" + likeEscaper.Replace(q.Keyword) + "%"
		db = db.Where("title LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!'", like, like)
	}
	if q.UploaderID != 0 {
		db = db.Where("uploader_id = ?", q.UploaderID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := resourceSortColumns[q.Sort]
	if !ok {
		order = resourceSortColumns["new"]
	}

	err := db.Preload("Uploader").
		Order(order).
		Order("id DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&model.Resource{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).
		Error
}

func (r *ResourceRepository) IncrementDownloads(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&model.Resource{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).
		Error
}

// AdjustLikes delta 为 +1 或 -1
func (r *ResourceRepository) AdjustLikes(ctx context.Context, id uint, delta int) error {
	return r.DB.WithContext(ctx).Model(&model.Resource{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + ?", delta)).
		Error
}
