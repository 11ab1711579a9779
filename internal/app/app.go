package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/config"
	"github.com/d60-Lab/fanout-debugger/internal/api/handler"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
	"github.com/d60-Lab/fanout-debugger/internal/service"
	"github.com/d60-Lab/fanout-debugger/pkg/cache"
	"github.com/d60-Lab/fanout-debugger/pkg/database"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

// App 组装好的依赖
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Events        repository.EventRepository
	Users         repository.UserRepository
	Followers     repository.FollowerRepository
	Notifications repository.NotificationRepository
	FanoutLogs    repository.FanoutLogRepository

	Engine      *service.FanoutEngine
	Replayer    *service.LockedReplayer
	ReplayQueue *service.ReplayQueue
	EventQuery  service.EventQueryService
	UserService service.UserService
	RelService  service.RelationshipService
}

// New 打开数据库（及可选的 Redis）并组装服务
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}

	a := &App{Config: cfg, DB: db}

	var locker service.EventLocker = service.NewLocalEventLocker()
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		a.Redis = client
		locker = service.NewRedisEventLocker(client, cfg.Replay.LockTTL)
	}
	logger.Info("app dependencies ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	a.wire(db, locker)
	return a, nil
}

// NewWithDB 用已打开的数据库组装（测试与基准使用）
func NewWithDB(cfg *config.Config, db *gorm.DB, locker service.EventLocker) *App {
	a := &App{Config: cfg, DB: db}
	if locker == nil {
		locker = service.NewLocalEventLocker()
	}
	a.wire(db, locker)
	return a
}

func (a *App) wire(db *gorm.DB, locker service.EventLocker) {
	a.Events = repository.NewEventRepository(db)
	a.Users = repository.NewUserRepository(db)
	a.Followers = repository.NewFollowerRepository(db)
	a.Notifications = repository.NewNotificationRepository(db)
	a.FanoutLogs = repository.NewFanoutLogRepository(db)

	a.Engine = service.NewFanoutEngine(a.Events, a.Users, a.Followers, a.Notifications, a.FanoutLogs)
	a.Replayer = service.NewLockedReplayer(a.Engine, locker)
	a.ReplayQueue = service.NewReplayQueue(a.Replayer, a.Config.Replay.QueueSize, a.Config.Replay.JobTimeout)
	a.EventQuery = service.NewEventQueryService(a.Events, a.FanoutLogs, a.Notifications)
	a.UserService = service.NewUserService(a.Users, a.Followers, a.Notifications)
	a.RelService = service.NewRelationshipService(a.Users, a.Followers)
}

// Handler 构造 HTTP handler
func (a *App) Handler() *handler.Handler {
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(a.DB.WithContext(ctx)) },
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return handler.NewHandler(handler.Options{
		Processor:    a.Engine,
		Replayer:     a.Replayer,
		ReplayQueue:  a.ReplayQueue,
		EventQuery:   a.EventQuery,
		UserService:  a.UserService,
		RelService:   a.RelService,
		HealthChecks: checks,
	})
}

// Close 释放连接
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if err := database.Close(a.DB); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close db: %w", err)
	}
	return firstErr
}
