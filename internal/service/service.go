package service

import (
	"time"

	"github.com/wfunc/arena-game/internal/repository"
	"github.com/wfunc/arena-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "your-secret-key-change-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Services 服务集合
type Services struct {
	Auth      AuthService
	GameState GameStateService
	Character CharacterService

	JWTManager *utils.JWTManager
}

// NewServices 创建服务集合
//
// publisher 为广播出口（websocket hub），传nil时只落盘不广播。
func NewServices(db *gorm.DB, config *Config, publisher EventPublisher, log *zap.Logger) *Services {
	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	authRepo := repository.NewUserAuthRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	stateRepo := repository.NewGameStateRepository(db)
	positionRepo := repository.NewTokenPositionRepository(db)

	// 初始化JWT管理器
	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	// 初始化服务
	authService := NewAuthService(
		db,
		userRepo,
		authRepo,
		jwtManager,
		log,
	)

	gameStateService := NewGameStateService(
		db,
		stateRepo,
		positionRepo,
		characterRepo,
		publisher,
		log,
	)

	characterService := NewCharacterService(
		characterRepo,
		gameStateService,
		log,
	)

	return &Services{
		Auth:       authService,
		GameState:  gameStateService,
		Character:  characterService,
		JWTManager: jwtManager,
	}
}
