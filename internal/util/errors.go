package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrResourceNotFound    = errors.New("资料不存在")
	ErrCommentNotFound     = errors.New("评论不存在")
	ErrInsufficientBalance = errors.New("积分不足")
	ErrUsernameTaken       = errors.New("用户名已存在")
	ErrInvalidCredentials  = errors.New("用户名或密码错误")
	ErrUnauthorized        = errors.New("无效的认证令牌")
	ErrTokenExpired        = errors.New("认证令牌已过期")
	ErrForbidden           = errors.New("permission denied")
	ErrNotEntitled         = errors.New("请先兑换该资料")
	ErrFileRequired        = errors.New("请上传文件")
	ErrFileTooLarge        = errors.New("文件大小超出限制")
	ErrFileTypeNotAllowed  = errors.New("不支持的文件类型")
)
