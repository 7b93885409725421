package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"campus_share_backend/pkg/monitoring"
	"campus_share_backend/pkg/tracing"
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Rules 积分奖励规则，可在配置热更新时替换
type Rules struct {
	UploadBonus int
	LoginBonus  int
}

// DownloadResult 下载请求结果
type DownloadResult struct {
	Resource     *model.Resource
	Charged      int  // 本次实际扣除的积分
	Balance      int  // 操作后的余额
	AlreadyOwned bool // 之前已经下载过，不再扣费
}

// LedgerService 积分账本与下载闸门，所有余额变动都经过这里
type LedgerService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	ResourceRepo *repository.ResourceRepository
	DownloadRepo *repository.DownloadRepository
	Interactions *repository.InteractionRepository
	PointLogRepo *repository.PointLogRepository

	mu    sync.RWMutex
	rules Rules
	now   func() time.Time
}

func NewLedgerService(db *gorm.DB, rules Rules) *LedgerService {
	return &LedgerService{
		DB:           db,
		UserRepo:     repository.NewUserRepository(db),
		ResourceRepo: repository.NewResourceRepository(db),
		DownloadRepo: repository.NewDownloadRepository(db),
		Interactions: repository.NewInteractionRepository(db),
		PointLogRepo: repository.NewPointLogRepository(db),
		rules:        rules,
		now:          time.Now,
	}
}

func (s *LedgerService) Rules() Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

func (s *LedgerService) SetRules(rules Rules) {
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	logger.Log.Info("Ledger rules updated",
		zap.Int("upload_bonus", rules.UploadBonus),
		zap.Int("login_bonus", rules.LoginBonus),
	)
}

// RequestDownload 首次下载扣费并生成下载凭证，已有凭证时直接放行
func (s *LedgerService) RequestDownload(ctx context.Context, userID, resourceID uint) (*DownloadResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ledger.RequestDownload")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("resource.id", int64(resourceID)),
	)

	var result DownloadResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		resources := s.ResourceRepo.WithTx(tx)
		downloads := s.DownloadRepo.WithTx(tx)

		// 先锁用户行，同一用户的并发下载在此串行化
		user, err := users.LockByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		resource, err := resources.FindByID(ctx, resourceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrResourceNotFound
			}
			return err
		}
		result.Resource = resource

		owned, err := downloads.Exists(ctx, userID, resourceID)
		if err != nil {
			return err
		}
		if owned {
			result.AlreadyOwned = true
			result.Balance = user.Points
			return nil
		}

		price := resource.PointsRequired
		if user.Points < price {
			return util.ErrInsufficientBalance
		}

		if price > 0 {
			rows, err := users.Debit(ctx, userID, price)
			if err != nil {
				return err
			}
			if rows == 0 {
				return util.ErrInsufficientBalance
			}
		}

		if err := downloads.Create(ctx, &model.DownloadRecord{
			UserID:     userID,
			ResourceID: resourceID,
			Charged:    price,
		}); err != nil {
			return err
		}

		if err := resources.IncrementDownloads(ctx, resourceID); err != nil {
			return err
		}
		resource.Downloads++

		result.Charged = price
		result.Balance = user.Points - price

		if price == 0 {
			return nil
		}
		return s.PointLogRepo.WithTx(tx).Create(ctx, &model.PointLog{
			UserID:     userID,
			Amount:     -price,
			Balance:    result.Balance,
			Reason:     model.PointReasonDownload,
			ResourceID: &resourceID,
		})
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, util.ErrInsufficientBalance) {
			monitoring.DownloadOutcomes.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}

	switch {
	case result.AlreadyOwned:
		monitoring.DownloadOutcomes.WithLabelValues("entitled").Inc()
	default:
		monitoring.DownloadOutcomes.WithLabelValues("charged").Inc()
		monitoring.PointsDebited.Add(float64(result.Charged))
		logger.Log.Info("Resource downloaded",
			zap.Uint("user_id", userID),
			zap.Uint("resource_id", resourceID),
			zap.Int("charged", result.Charged),
			zap.Int("balance", result.Balance),
		)
	}
	return &result, nil
}

// CreditOnUpload 创建资料并给上传者加分，二者在同一事务中；返回实际发放的积分与新余额
func (s *LedgerService) CreditOnUpload(ctx context.Context, resource *model.Resource) (int, int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ledger.CreditOnUpload")
	defer span.End()

	bonus := s.Rules().UploadBonus
	var balance int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)

		if err := s.ResourceRepo.WithTx(tx).Create(ctx, resource); err != nil {
			return err
		}

		rows, err := users.Credit(ctx, resource.UploaderID, bonus)
		if err != nil {
			return err
		}
		if rows == 0 {
			return util.ErrUserNotFound
		}

		balance, err = users.Points(ctx, resource.UploaderID)
		if err != nil {
			return err
		}

		if bonus == 0 {
			return nil
		}
		resourceID := resource.ID
		return s.PointLogRepo.WithTx(tx).Create(ctx, &model.PointLog{
			UserID:     resource.UploaderID,
			Amount:     bonus,
			Balance:    balance,
			Reason:     model.PointReasonUpload,
			ResourceID: &resourceID,
		})
	})
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}

	monitoring.PointsCredited.WithLabelValues(string(model.PointReasonUpload)).Add(float64(bonus))
	return bonus, balance, nil
}

// CreditOnLogin 每个自然日最多发放一次登录奖励，返回本次是否发放
func (s *LedgerService) CreditOnLogin(ctx context.Context, userID uint) (bool, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ledger.CreditOnLogin")
	defer span.End()

	bonus := s.Rules().LoginBonus
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var credited bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)

		rows, err := users.CreditLoginBonus(ctx, userID, bonus, today)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		credited = true

		if bonus == 0 {
			return nil
		}
		balance, err := users.Points(ctx, userID)
		if err != nil {
			return err
		}
		return s.PointLogRepo.WithTx(tx).Create(ctx, &model.PointLog{
			UserID:  userID,
			Amount:  bonus,
			Balance: balance,
			Reason:  model.PointReasonLogin,
		})
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	if credited {
		monitoring.PointsCredited.WithLabelValues(string(model.PointReasonLogin)).Add(float64(bonus))
	}
	return credited, nil
}

// ToggleLike 切换点赞状态，返回切换后的状态与点赞数
func (s *LedgerService) ToggleLike(ctx context.Context, userID, resourceID uint) (bool, int, error) {
	var liked bool
	var likes int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resources := s.ResourceRepo.WithTx(tx)
		interactions := s.Interactions.WithTx(tx)

		resource, err := resources.LockByID(ctx, resourceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrResourceNotFound
			}
			return err
		}

		removed, err := interactions.DeleteLike(ctx, userID, resourceID)
		if err != nil {
			return err
		}
		if removed > 0 {
			if err := resources.AdjustLikes(ctx, resourceID, -1); err != nil {
				return err
			}
			likes = resource.Likes - 1
			return nil
		}

		if err := interactions.CreateLike(ctx, &model.Like{UserID: userID, ResourceID: resourceID}); err != nil {
			return err
		}
		if err := resources.AdjustLikes(ctx, resourceID, 1); err != nil {
			return err
		}
		liked = true
		likes = resource.Likes + 1
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// ToggleFavorite 切换收藏状态，收藏没有计数
func (s *LedgerService) ToggleFavorite(ctx context.Context, userID, resourceID uint) (bool, error) {
	var favorited bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		interactions := s.Interactions.WithTx(tx)

		if _, err := s.ResourceRepo.WithTx(tx).LockByID(ctx, resourceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrResourceNotFound
			}
			return err
		}

		removed, err := interactions.DeleteFavorite(ctx, userID, resourceID)
		if err != nil {
			return err
		}
		if removed > 0 {
			return nil
		}

		favorited = true
		return interactions.CreateFavorite(ctx, &model.Favorite{UserID: userID, ResourceID: resourceID})
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// IsEntitled 是否已持有下载凭证
func (s *LedgerService) IsEntitled(ctx context.Context, userID, resourceID uint) (bool, error) {
	return s.DownloadRepo.Exists(ctx, userID, resourceID)
}
