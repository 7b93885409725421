package controller

import (
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary 获取当前用户资料
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /users/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, err := c.UserService.Profile(ctx.Request.Context(), util.CurrentUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetFavorites godoc
// @Summary 我的收藏
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.FavoriteItem}
// @Router /users/favorites [get]
func (c *UserController) GetFavorites(ctx *gin.Context) {
	items, err := c.UserService.Favorites(ctx.Request.Context(), util.CurrentUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// GetDownloadHistory godoc
// @Summary 下载历史
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /users/download-history [get]
func (c *UserController) GetDownloadHistory(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	result, err := c.UserService.DownloadHistory(ctx.Request.Context(), util.CurrentUserID(ctx), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetPointLogs godoc
// @Summary 积分流水
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /users/point-logs [get]
func (c *UserController) GetPointLogs(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	result, err := c.UserService.PointLogs(ctx.Request.Context(), util.CurrentUserID(ctx), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
