package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-debugger/config"
	"github.com/d60-Lab/fanout-debugger/internal/api"
	"github.com/d60-Lab/fanout-debugger/internal/app"
	"github.com/d60-Lab/fanout-debugger/internal/service"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
	"github.com/d60-Lab/fanout-debugger/pkg/tracing"
)

// @title Fanout Debugger API
// @version 1.0
// @description 事件扇出通知与重放调试控制台
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("init app", zap.Error(err))
	}

	stopQueue := a.ReplayQueue.Start(cfg.Replay.Workers)
	go service.LogReplayOutcomes(a.ReplayQueue.Results())

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, a.Handler()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopQueue(shutdownCtx); err != nil {
		logger.Warn("replay queue did not drain", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	if err := a.Close(); err != nil {
		logger.Warn("close app", zap.Error(err))
	}
}
