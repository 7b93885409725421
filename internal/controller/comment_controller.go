package controller

import (
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type CommentController struct {
	CommentService *service.CommentService
}

func NewCommentController(commentService *service.CommentService) *CommentController {
	return &CommentController{CommentService: commentService}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// ListComments godoc
// @Summary 资料评论列表
// @Tags 评论
// @Produce  json
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=[]service.CommentView}
// @Failure 404 {object} util.Response
// @Router /resources/{id}/comments [get]
func (c *CommentController) ListComments(ctx *gin.Context) {
	resourceID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	comments, err := c.CommentService.List(ctx.Request.Context(), resourceID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, comments)
}

// CreateComment godoc
// @Summary 发表评论
// @Tags 评论
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Param body body CreateCommentRequest true "评论内容"
// @Success 201 {object} util.Response{data=service.CommentView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /resources/{id}/comments [post]
func (c *CommentController) CreateComment(ctx *gin.Context) {
	resourceID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.BadRequest(ctx, "评论内容不能为空")
		return
	}

	comment, err := c.CommentService.Create(ctx.Request.Context(), util.CurrentUserID(ctx), resourceID, content)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, comment)
}

// DeleteComment godoc
// @Summary 删除自己的评论
// @Tags 评论
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "评论ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /comments/{id} [delete]
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CommentService.Delete(ctx.Request.Context(), util.CurrentUserID(ctx), commentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": commentID})
}
