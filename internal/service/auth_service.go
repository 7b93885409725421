package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginResult 登录结果，User 为发放登录奖励之后的资料
type LoginResult struct {
	Token        string      `json:"token"`
	User         *model.User `json:"user"`
	BonusAwarded bool        `json:"bonusAwarded"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Ledger   *LedgerService
	Tokens   *util.TokenManager
}

func NewAuthService(userRepo *repository.UserRepository, ledger *LedgerService, tokens *util.TokenManager) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Ledger:   ledger,
		Tokens:   tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	_, err := s.UserRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: string(hashedPassword),
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}

	logger.Log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	awarded, err := s.Ledger.CreditOnLogin(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if awarded {
		if user, err = s.UserRepo.FindByID(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user, BonusAwarded: awarded}, nil
}
