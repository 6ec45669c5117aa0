package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/arena-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		// 用户系统
		&models.User{},
		&models.UserAuth{},

		// 角色系统
		&models.Character{},

		// 游戏状态
		&models.GameState{},
		&models.TokenPosition{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestUsers 创建测试用户（一个玩家、一个GM）
func SeedTestUsers(t *testing.T, db *gorm.DB) (player *models.User, gm *models.User) {
	player = &models.User{
		Username: "tex",
		Nickname: "Tex",
		Email:    "tex@example.com",
		Role:     models.RolePlayer,
		Status:   "active",
	}
	gm = &models.User{
		Username: "marshal",
		Nickname: "The Marshal",
		Email:    "marshal@example.com",
		Role:     models.RoleGameMaster,
		Status:   "active",
	}

	require.NoError(t, db.Create(player).Error)
	require.NoError(t, db.Create(gm).Error)
	return player, gm
}

// SeedTestCharacter 创建归属于指定玩家的测试角色
func SeedTestCharacter(t *testing.T, db *gorm.DB, playerID uint, name string) *models.Character {
	character := &models.Character{
		Name:       name,
		Occupation: "gunslinger",
		PlayerID:   &playerID,
	}
	require.NoError(t, db.Create(character).Error)
	return character
}

// CreateTestPosition 创建测试棋子位置
func CreateTestPosition(tokenID, tokenType string, x, y int, movedBy string) *models.TokenPosition {
	return &models.TokenPosition{
		GameStateID: models.GameStateID,
		TokenID:     tokenID,
		TokenType:   tokenType,
		GridX:       x,
		GridY:       y,
		LastMovedBy: movedBy,
		LastMoved:   time.Now(),
	}
}
