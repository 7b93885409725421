package middleware

import (
	"campus_share_backend/internal/util"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier 校验访问令牌
type TokenVerifier interface {
	Verify(token string) (*util.Claims, error)
}

func extractToken(c *gin.Context) string {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	if tokenString == "" {
		tokenString = c.Query("token")
	}
	return tokenString
}

// AuthMiddleware 必须登录
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, util.ErrTokenExpired) {
				util.Error(c, 401, err.Error())
			} else {
				util.Unauthorized(c)
			}
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// TryAuthMiddleware 令牌有效时注入用户信息，无效或缺失时按匿名处理
func TryAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := verifier.Verify(tokenString); err == nil {
				c.Set(util.ContextUserKey, claims)
			}
		}
		c.Next()
	}
}
