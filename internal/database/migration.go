package database

import (
	"fmt"
	"time"

	"github.com/wfunc/arena-game/internal/logger"
	"github.com/wfunc/arena-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 定义需要迁移的模型
	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},

		// 角色相关（棋子归属的权威来源）
		&models.Character{},

		// 游戏状态相关
		&models.GameState{},
		&models.TokenPosition{},
	}

	start := time.Now()
	if err := DB.AutoMigrate(migrationModels...); err != nil {
		logger.Error("数据库迁移失败", zap.Error(err))
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	logger.Info("数据库迁移完成",
		zap.Int("tables", len(migrationModels)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return nil
}
