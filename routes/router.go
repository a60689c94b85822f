package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/config"
	"github.com/aronm-sonance/sonance-marketing-hub/controllers"
	"github.com/aronm-sonance/sonance-marketing-hub/middleware"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, engine *workflow.Engine, mailer *utils.Mailer) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log and recovery go to a dedicated rolling file, separate from
	// the application log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db, engine)
	notificationController := controllers.NewNotificationController(db)
	channelController := controllers.NewChannelController(db)
	catalogController := controllers.NewCatalogController(db)
	userController := controllers.NewUserController(db, mailer, cfg.AppBaseURL)

	api := r.Group("/api/v1")

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/posts", postController.ListPosts)
	protected.GET("/posts/:id", postController.GetPost)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.POST("/posts/:id/transition", postController.Transition)

	protected.GET("/notifications", notificationController.List)
	protected.PUT("/notifications", notificationController.MarkRead)
	protected.PUT("/notifications/:id", notificationController.MarkOne)

	protected.GET("/channels", channelController.List)
	protected.GET("/platforms", catalogController.ListPlatforms)
	protected.GET("/content-types", catalogController.ListContentTypes)

	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware(), middleware.AdminRequired(db))

	admin.POST("/channels", channelController.Create)
	admin.PUT("/channels/:id", channelController.Update)
	admin.DELETE("/channels/:id", channelController.Delete)
	admin.GET("/channels/:id/members", channelController.ListMembers)
	admin.POST("/channels/:id/members", channelController.UpsertMember)
	admin.DELETE("/channels/:id/members/:profileId", channelController.RemoveMember)

	admin.POST("/platforms", catalogController.CreatePlatform)
	admin.PUT("/platforms/:id", catalogController.UpdatePlatform)
	admin.DELETE("/platforms/:id", catalogController.DeletePlatform)
	admin.POST("/content-types", catalogController.CreateContentType)
	admin.PUT("/content-types/:id", catalogController.UpdateContentType)
	admin.DELETE("/content-types/:id", catalogController.DeleteContentType)

	admin.POST("/admin/users", userController.Invite)
	admin.GET("/admin/users", userController.List)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
