package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// DownloadHistoryItem 下载历史条目
type DownloadHistoryItem struct {
	Resource     ResourceView `json:"resource"`
	Charged      int          `json:"charged"`
	DownloadedAt time.Time    `json:"downloadedAt"`
}

// FavoriteItem 收藏条目
type FavoriteItem struct {
	Resource    ResourceView `json:"resource"`
	FavoritedAt time.Time    `json:"favoritedAt"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo     *repository.UserRepository
	DownloadRepo *repository.DownloadRepository
	Interactions *repository.InteractionRepository
	PointLogRepo *repository.PointLogRepository
}

// NewUserService 创建一个新的用户服务实例
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		UserRepo:     repository.NewUserRepository(db),
		DownloadRepo: repository.NewDownloadRepository(db),
		Interactions: repository.NewInteractionRepository(db),
		PointLogRepo: repository.NewPointLogRepository(db),
	}
}

// Profile 获取用户资料
func (s *UserService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Favorites 收藏列表，已删除的资料不再返回
func (s *UserService) Favorites(ctx context.Context, userID uint) ([]FavoriteItem, error) {
	favorites, err := s.Interactions.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]FavoriteItem, 0, len(favorites))
	for i := range favorites {
		if favorites[i].Resource.ID == 0 {
			continue
		}
		view := NewResourceView(&favorites[i].Resource)
		view.Favorited = true
		items = append(items, FavoriteItem{Resource: view, FavoritedAt: favorites[i].CreatedAt})
	}
	return items, nil
}

// DownloadHistory 下载历史，分页，最新在前
func (s *UserService) DownloadHistory(ctx context.Context, userID uint, page, limit int) (*util.PageResponse, error) {
	page, limit = util.NormalizePage(page, limit)
	records, total, err := s.DownloadRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]DownloadHistoryItem, 0, len(records))
	for i := range records {
		// 资料已被删除
		if records[i].Resource.ID == 0 {
			continue
		}
		view := NewResourceView(&records[i].Resource)
		view.Downloaded = true
		items = append(items, DownloadHistoryItem{
			Resource:     view,
			Charged:      records[i].Charged,
			DownloadedAt: records[i].CreatedAt,
		})
	}

	return &util.PageResponse{List: items, Total: total, Page: page, Limit: limit}, nil
}

// PointLogs 积分流水，分页
func (s *UserService) PointLogs(ctx context.Context, userID uint, page, limit int) (*util.PageResponse, error) {
	page, limit = util.NormalizePage(page, limit)
	logs, total, err := s.PointLogRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: logs, Total: total, Page: page, Limit: limit}, nil
}
