// Package testutil 提供测试用的内存数据库与种子数据
package testutil

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

// NewDB 打开已迁移的 sqlite 内存库，测试结束时关闭
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("db handle: %v", err)
	}
	// 每个连接都是独立的内存库
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser 插入用户并返回
func CreateUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{Username: username}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// Follow 让 follower 关注 target
func Follow(tb testing.TB, db *gorm.DB, follower, target *model.User) {
	tb.Helper()
	if err := repository.NewFollowerRepository(db).Create(context.Background(), follower.ID, target.ID); err != nil {
		tb.Fatalf("follow %s -> %s: %v", follower.Username, target.Username, err)
	}
}
