package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// Migrate 初始化全部表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Follower{},
		&model.Event{},
		&model.Notification{},
		&model.FanoutLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
