package controller

import (
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
}

func NewResourceController(resourceService *service.ResourceService) *ResourceController {
	return &ResourceController{ResourceService: resourceService}
}

// UploadRequest 上传资料表单字段，文件字段名为 file
type UploadRequest struct {
	Title          string `form:"title" binding:"required,max=255"`
	Description    string `form:"description"`
	PointsRequired int    `form:"points_required" binding:"min=0"`
}

// ListResources godoc
// @Summary 资料列表
// @Description 分页浏览与搜索资料
// @Tags 资料
// @Produce  json
// @Param keyword query string false "关键字，匹配标题和描述"
// @Param sort query string false "排序方式 new/downloads/likes/views"
// @Param uploader_id query int false "上传者ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /resources [get]
func (c *ResourceController) ListResources(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	uploaderID, _ := strconv.ParseUint(ctx.Query("uploader_id"), 10, 32)

	result, err := c.ResourceService.List(ctx.Request.Context(), repository.ResourceQuery{
		Keyword:    strings.TrimSpace(ctx.Query("keyword")),
		Sort:       ctx.DefaultQuery("sort", "new"),
		UploaderID: uint(uploaderID),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// UploadResource godoc
// @Summary 上传资料
// @Description 上传文件并获得积分奖励
// @Tags 资料
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param file formData file true "资料文件"
// @Param title formData string true "标题"
// @Param description formData string false "描述"
// @Param points_required formData int false "下载所需积分"
// @Success 201 {object} util.Response{data=service.UploadResult}
// @Failure 400 {object} util.Response "文件类型或大小不符合要求"
// @Router /resources [post]
func (c *ResourceController) UploadResource(ctx *gin.Context) {
	var req UploadRequest
	if err := ctx.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			util.HandleError(ctx, util.ErrFileTooLarge)
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			util.HandleError(ctx, util.ErrFileTooLarge)
			return
		}
		util.HandleError(ctx, util.ErrFileRequired)
		return
	}

	result, err := c.ResourceService.UploadResource(ctx.Request.Context(), service.UploadInput{
		UploaderID:     util.CurrentUserID(ctx),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		File:           file,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// GetResource godoc
// @Summary 资料详情
// @Description 浏览数加一，登录用户返回点赞/收藏/下载状态
// @Tags 资料
// @Produce  json
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=service.ResourceView}
// @Failure 404 {object} util.Response
// @Router /resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	view, err := c.ResourceService.Detail(ctx.Request.Context(), id, util.CurrentUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// DownloadResource godoc
// @Summary 兑换下载
// @Description 首次下载扣除积分，之后重复下载不再扣费
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=service.DownloadTicket}
// @Failure 402 {object} util.Response "积分不足"
// @Failure 404 {object} util.Response
// @Router /resources/{id}/download [post]
func (c *ResourceController) DownloadResource(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	ticket, err := c.ResourceService.Download(ctx.Request.Context(), util.CurrentUserID(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, ticket)
}

// GetFile godoc
// @Summary 获取资料文件
// @Description 仅已兑换用户或上传者可以获取
// @Tags 资料
// @Produce  octet-stream
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {file} file
// @Failure 403 {object} util.Response "尚未兑换"
// @Failure 404 {object} util.Response
// @Router /resources/{id}/file [get]
func (c *ResourceController) GetFile(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	stream, err := c.ResourceService.OpenFile(ctx.Request.Context(), util.CurrentUserID(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	defer stream.Reader.Close()

	contentType := stream.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, stream.Size, contentType, stream.Reader, map[string]string{
		"Content-Disposition": "attachment; filename*=UTF-8''" + url.PathEscape(stream.FileName),
	})
}

// GetDownloadStatus godoc
// @Summary 下载状态
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /resources/{id}/download-status [get]
func (c *ResourceController) GetDownloadStatus(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	downloaded, err := c.ResourceService.DownloadStatus(ctx.Request.Context(), util.CurrentUserID(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"downloaded": downloaded})
}

// ToggleLike godoc
// @Summary 点赞/取消点赞
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /resources/{id}/like [post]
func (c *ResourceController) ToggleLike(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	liked, likes, err := c.ResourceService.ToggleLike(ctx.Request.Context(), util.CurrentUserID(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"liked": liked, "likes": likes})
}

// ToggleFavorite godoc
// @Summary 收藏/取消收藏
// @Tags 资料
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "资料ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /resources/{id}/favorite [post]
func (c *ResourceController) ToggleFavorite(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	favorited, err := c.ResourceService.ToggleFavorite(ctx.Request.Context(), util.CurrentUserID(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"favorited": favorited})
}
