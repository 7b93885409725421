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

// CommentView 评论展示结构
type CommentView struct {
	ID         uint      `json:"id"`
	Content    string    `json:"content"`
	UserID     uint      `json:"userId"`
	Username   string    `json:"username"`
	ResourceID uint      `json:"resourceId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newCommentView(c *model.Comment) CommentView {
	return CommentView{
		ID:         c.ID,
		Content:    c.Content,
		UserID:     c.UserID,
		Username:   c.User.Username,
		ResourceID: c.ResourceID,
		CreatedAt:  c.CreatedAt,
	}
}

type CommentService struct {
	CommentRepo  *repository.CommentRepository
	ResourceRepo *repository.ResourceRepository
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		CommentRepo:  repository.NewCommentRepository(db),
		ResourceRepo: repository.NewResourceRepository(db),
	}
}

func (s *CommentService) List(ctx context.Context, resourceID uint) ([]CommentView, error) {
	exists, err := s.ResourceRepo.Exists(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrResourceNotFound
	}

	comments, err := s.CommentRepo.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, newCommentView(&comments[i]))
	}
	return views, nil
}

func (s *CommentService) Create(ctx context.Context, userID, resourceID uint, content string) (*CommentView, error) {
	exists, err := s.ResourceRepo.Exists(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrResourceNotFound
	}

	comment := &model.Comment{
		Content:    content,
		UserID:     userID,
		ResourceID: resourceID,
	}
	if err := s.CommentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.CommentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	view := newCommentView(created)
	return &view, nil
}

// Delete 只有评论作者可以删除
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.CommentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCommentNotFound
		}
		return err
	}

	if comment.UserID != userID {
		return util.ErrForbidden
	}
	return s.CommentRepo.Delete(ctx, commentID)
}
