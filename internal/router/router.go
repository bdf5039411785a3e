package router

import (
	"net/http"

	"homebroker/config"
	"homebroker/internal/handler"
	"homebroker/internal/hub"
	"homebroker/internal/middleware"
	"homebroker/internal/repository"
	"homebroker/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto a gin engine.
// registry is shared by the publisher and the stream endpoints and must be
// the same instance for the lifetime of the process.
func Setup(cfg *config.Config, db *gorm.DB, registry *hub.Registry) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateMw := middleware.RateLimit(limiter)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, registry)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	streamHandler := handler.NewStreamHandler(registry, cfg.Notifications.KeepAliveInterval, cfg.Notifications.WriteWait)
	adminHandler := handler.NewAdminHandler(registry)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(rateMw)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		me := api.Group("/me")
		me.Use(authMw, rateMw)
		{
			me.GET("", authHandler.Me)
			me.GET("/notifications", notificationHandler.List)
			me.GET("/notifications/stream", streamHandler.Stream)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		// Trusted server-side publishers only; never reachable with a user
		// session and not subject to the per-client rate limit.
		internal := api.Group("/internal")
		internal.Use(middleware.InternalSecret(cfg.Notifications.PublishSecret))
		{
			internal.POST("/notifications", notificationHandler.Publish)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/streams", adminHandler.Streams)
		}
	}

	r.GET("/ws/notifications", authMw, streamHandler.Socket)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"service":      "notifications",
			"open_streams": registry.Len(),
		})
	})

	return r
}
