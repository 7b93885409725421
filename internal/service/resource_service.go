package service

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 同一用户在该时间窗内重复浏览只计一次
const viewDedupWindow = 10 * time.Minute

// ResourceView 资料展示结构，带上传者用户名和当前用户的交互状态
type ResourceView struct {
	model.Resource
	UploaderName string `json:"uploaderName"`
	Liked        bool   `json:"liked"`
	Favorited    bool   `json:"favorited"`
	Downloaded   bool   `json:"downloaded"`
}

func NewResourceView(r *model.Resource) ResourceView {
	return ResourceView{Resource: *r, UploaderName: r.Uploader.Username}
}

// UploadInput 上传参数
type UploadInput struct {
	UploaderID     uint
	Title          string
	Description    string
	PointsRequired int
	File           *multipart.FileHeader
}

// UploadResult 上传结果
type UploadResult struct {
	Resource ResourceView `json:"resource"`
	Bonus    int          `json:"bonus"`
	Balance  int          `json:"balance"`
}

// DownloadTicket 下载成功后返回给客户端的信息
type DownloadTicket struct {
	ResourceID   uint   `json:"resourceId"`
	FileName     string `json:"fileName"`
	FileURL      string `json:"fileUrl"`
	Charged      int    `json:"charged"`
	Balance      int    `json:"balance"`
	AlreadyOwned bool   `json:"alreadyOwned"`
}

// FileStream 文件流，调用方负责关闭 Reader
type FileStream struct {
	Reader   io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	Interactions *repository.InteractionRepository
	Ledger       *LedgerService
	Storage      *StorageService
	Redis        *redis.Client
	Upload       config.UploadConfig
}

func NewResourceService(db *gorm.DB, ledger *LedgerService, storage *StorageService, rdb *redis.Client, upload config.UploadConfig) *ResourceService {
	return &ResourceService{
		ResourceRepo: repository.NewResourceRepository(db),
		Interactions: repository.NewInteractionRepository(db),
		Ledger:       ledger,
		Storage:      storage,
		Redis:        rdb,
		Upload:       upload,
	}
}

// UploadResource 先保存文件，再在同一事务中创建资料并发放上传奖励；事务失败时删除已保存的文件
func (s *ResourceService) UploadResource(ctx context.Context, in UploadInput) (*UploadResult, error) {
	contentType, err := util.ValidateUpload(in.File, s.Upload.AllowedTypes, s.Upload.MaxBytes())
	if err != nil {
		return nil, err
	}

	src, err := in.File.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	locator, err := s.Storage.Save(ctx, in.File.Filename, src, in.File.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	resource := &model.Resource{
		Title:          in.Title,
		Description:    in.Description,
		FilePath:       locator,
		FileName:       in.File.Filename,
		FileSize:       in.File.Size,
		MimeType:       contentType,
		PointsRequired: in.PointsRequired,
		UploaderID:     in.UploaderID,
	}

	bonus, balance, err := s.Ledger.CreditOnUpload(ctx, resource)
	if err != nil {
		if delErr := s.Storage.Delete(context.WithoutCancel(ctx), locator); delErr != nil {
			logger.Log.Warn("Failed to remove orphan file", zap.String("locator", locator), zap.Error(delErr))
		}
		return nil, err
	}

	if created, err := s.ResourceRepo.FindByID(ctx, resource.ID); err == nil {
		resource = created
	}

	logger.Log.Info("Resource uploaded",
		zap.Uint("resource_id", resource.ID),
		zap.Uint("uploader_id", in.UploaderID),
		zap.String("location", s.Storage.Resolve(locator)),
	)

	return &UploadResult{
		Resource: NewResourceView(resource),
		Bonus:    bonus,
		Balance:  balance,
	}, nil
}

// List 分页列表，支持关键字搜索、排序和上传者过滤
func (s *ResourceService) List(ctx context.Context, q repository.ResourceQuery) (*util.PageResponse, error) {
	q.Page, q.Limit = util.NormalizePage(q.Page, q.Limit)
	resources, total, err := s.ResourceRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	views := make([]ResourceView, 0, len(resources))
	for i := range resources {
		views = append(views, NewResourceView(&resources[i]))
	}
	return &util.PageResponse{List: views, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// Detail 资料详情，浏览数加一；viewerID 为 0 表示未登录
func (s *ResourceService) Detail(ctx context.Context, resourceID, viewerID uint) (*ResourceView, error) {
	resource, err := s.ResourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	if s.shouldCountView(ctx, resourceID, viewerID) {
		if err := s.ResourceRepo.IncrementViews(ctx, resourceID); err != nil {
			return nil, err
		}
		resource.Views++
	}

	view := NewResourceView(resource)
	if viewerID == 0 {
		return &view, nil
	}

	if view.Liked, err = s.Interactions.HasLiked(ctx, viewerID, resourceID); err != nil {
		return nil, err
	}
	if view.Favorited, err = s.Interactions.HasFavorited(ctx, viewerID, resourceID); err != nil {
		return nil, err
	}
	if view.Downloaded, err = s.Ledger.IsEntitled(ctx, viewerID, resourceID); err != nil {
		return nil, err
	}
	return &view, nil
}

// shouldCountView 登录用户通过 Redis SETNX 去重，Redis 不可用时总是计数
func (s *ResourceService) shouldCountView(ctx context.Context, resourceID, viewerID uint) bool {
	if s.Redis == nil || viewerID == 0 {
		return true
	}

	key := fmt.Sprintf("resource:view:%d:%d", resourceID, viewerID)
	ok, err := s.Redis.SetNX(ctx, key, 1, viewDedupWindow).Result()
	if err != nil {
		logger.Log.Warn("View de-dup unavailable", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}

// Download 经过积分闸门后返回受保护的文件地址
func (s *ResourceService) Download(ctx context.Context, userID, resourceID uint) (*DownloadTicket, error) {
	result, err := s.Ledger.RequestDownload(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	return &DownloadTicket{
		ResourceID:   resourceID,
		FileName:     result.Resource.FileName,
		FileURL:      fmt.Sprintf("/api/resources/%d/file", resourceID),
		Charged:      result.Charged,
		Balance:      result.Balance,
		AlreadyOwned: result.AlreadyOwned,
	}, nil
}

// DownloadStatus 当前用户是否已获得该资料
func (s *ResourceService) DownloadStatus(ctx context.Context, userID, resourceID uint) (bool, error) {
	exists, err := s.ResourceRepo.Exists(ctx, resourceID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, util.ErrResourceNotFound
	}
	return s.Ledger.IsEntitled(ctx, userID, resourceID)
}

// OpenFile 仅对已兑换的用户或上传者开放文件流
func (s *ResourceService) OpenFile(ctx context.Context, userID, resourceID uint) (*FileStream, error) {
	resource, err := s.ResourceRepo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	if resource.UploaderID != userID {
		entitled, err := s.Ledger.IsEntitled(ctx, userID, resourceID)
		if err != nil {
			return nil, err
		}
		if !entitled {
			return nil, util.ErrNotEntitled
		}
	}

	reader, err := s.Storage.Open(ctx, resource.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", resource.FilePath, err)
	}

	return &FileStream{
		Reader:   reader,
		FileName: resource.FileName,
		MimeType: resource.MimeType,
		Size:     resource.FileSize,
	}, nil
}

// ToggleLike 点赞/取消点赞
func (s *ResourceService) ToggleLike(ctx context.Context, userID, resourceID uint) (bool, int, error) {
	return s.Ledger.ToggleLike(ctx, userID, resourceID)
}

// ToggleFavorite 收藏/取消收藏
func (s *ResourceService) ToggleFavorite(ctx context.Context, userID, resourceID uint) (bool, error) {
	return s.Ledger.ToggleFavorite(ctx, userID, resourceID)
}
