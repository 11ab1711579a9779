package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/fanout-debugger/config"
	_ "github.com/d60-Lab/fanout-debugger/docs"
	"github.com/d60-Lab/fanout-debugger/internal/api/handler"
	"github.com/d60-Lab/fanout-debugger/internal/api/middleware"
	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// NewRouter 注册中间件与全部路由
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	registerValidations()

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger(), gzip.Gzip(gzip.DefaultCompression))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/api/health", h.Health)
	r.GET("/api/health/detailed", h.HealthDetailed)

	v1 := r.Group("/api/v1")
	{
		events := v1.Group("/events")
		events.POST("", h.CreateEvent)
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
		events.GET("/:id/trace", h.GetEventTrace)
		events.POST("/:id/replay", h.ReplayEvent)

		v1.POST("/replays", h.BulkReplay)

		users := v1.Group("/users")
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/notifications", h.ListUserNotifications)
		users.POST("/:id/notifications/:notification_id/read", h.MarkNotificationRead)

		relations := v1.Group("/relations")
		relations.POST("/follow", h.Follow)
		relations.POST("/unfollow", h.Unfollow)
		relations.GET("/:user_id/followers", h.ListFollowers)
		relations.GET("/:user_id/following", h.ListFollowing)
	}
	return r
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
			return model.EventType(fl.Field().String()).Valid()
		})
	}
}
