package app

import (
	"campus_share_backend/docs"
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/middleware"
	"campus_share_backend/pkg/monitoring"
	"campus_share_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, verifier middleware.TokenVerifier, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	a.registerUserRoutes(api, c, verifier)
	a.registerResourceRoutes(api, c, verifier, cfg)

	comments := api.Group("/comments")
	comments.Use(middleware.AuthMiddleware(verifier))
	{
		comments.DELETE("/:id", c.comment.DeleteComment)
	}
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers, verifier middleware.TokenVerifier) {
	users := api.Group("/users")
	{
		users.POST("/register", c.auth.Register)
		users.POST("/login", c.auth.Login)
	}

	authorized := users.Group("")
	authorized.Use(middleware.AuthMiddleware(verifier))
	{
		authorized.GET("/profile", c.user.GetProfile)
		authorized.GET("/favorites", c.user.GetFavorites)
		authorized.GET("/download-history", c.user.GetDownloadHistory)
		authorized.GET("/point-logs", c.user.GetPointLogs)
	}
}

func (a *App) registerResourceRoutes(api *gin.RouterGroup, c *controllers, verifier middleware.TokenVerifier, cfg *config.Config) {
	resources := api.Group("/resources")
	{
		// 可选认证：游客可浏览，登录用户额外返回交互状态
		resources.GET("", middleware.TryAuthMiddleware(verifier), c.resource.ListResources)
		resources.GET("/:id", middleware.TryAuthMiddleware(verifier), c.resource.GetResource)
		resources.GET("/:id/comments", c.comment.ListComments)
	}

	authorized := resources.Group("")
	authorized.Use(middleware.AuthMiddleware(verifier))
	{
		// 预留 1MB 给表单其余字段
		authorized.POST("", security.BodyLimit(cfg.Upload.MaxBytes()+1<<20), c.resource.UploadResource)
		authorized.POST("/:id/download", c.resource.DownloadResource)
		authorized.GET("/:id/file", c.resource.GetFile)
		authorized.GET("/:id/download-status", c.resource.GetDownloadStatus)
		authorized.POST("/:id/like", c.resource.ToggleLike)
		authorized.POST("/:id/favorite", c.resource.ToggleFavorite)
		authorized.POST("/:id/comments", c.comment.CreateComment)
	}
}
