package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/arena-game/internal/config"
	"github.com/wfunc/arena-game/internal/middleware"
	"github.com/wfunc/arena-game/internal/service"
	ws "github.com/wfunc/arena-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine           *gin.Engine
	db               *gorm.DB
	hub              *ws.Hub
	services         *service.Services
	authHandler      *AuthHandler
	gameHandler      *GameHandler
	characterHandler *CharacterHandler
	wsHandler        *WebSocketHandler
	authMiddleware   *middleware.AuthMiddleware
	rateLimiter      *middleware.RateLimiter
	log              *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Router {
	// 创建Gin引擎
	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建广播中心（服务层通过它把事件推给所有连接）
	hub := ws.NewHub(log)

	// 创建服务
	serviceConfig := &service.Config{
		JWTSecret:          cfg.Security.JWT.Secret,
		AccessTokenExpiry:  time.Duration(cfg.Security.JWT.ExpireHours) * time.Hour,
		RefreshTokenExpiry: time.Duration(cfg.Security.JWT.RefreshHours) * time.Hour,
	}
	services := service.NewServices(db, serviceConfig, hub, log)

	// 入站消息处理器
	hub.SetMessageHandler(ws.NewGameMessageHandler(hub, services.GameState, log))

	// 创建处理器
	authHandler := NewAuthHandler(services.Auth)
	gameHandler := NewGameHandler(services.GameState)
	characterHandler := NewCharacterHandler(services.Character)
	wsHandler := NewWebSocketHandler(hub, log)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(services.Auth)
	rateLimiter := middleware.NewRateLimiter(&cfg.Security.RateLimit)

	router := &Router{
		engine:           engine,
		db:               db,
		hub:              hub,
		services:         services,
		authHandler:      authHandler,
		gameHandler:      gameHandler,
		characterHandler: characterHandler,
		wsHandler:        wsHandler,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		log:              log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API路由组（全局限流）
	api := r.engine.Group("/api")
	api.Use(r.rateLimiter.Limit())
	{
		// 认证相关路由（不需要认证，登录走更严格的桶）
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.rateLimiter.LimitLogin(), r.authHandler.Register)
			auth.POST("/login", r.rateLimiter.LimitLogin(), r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)
		}

		// 游戏状态路由
		game := api.Group("/game")
		{
			// 任何已认证用户都能读状态
			game.GET("/state", r.authMiddleware.RequireAuth(), r.gameHandler.GetGameState)

			// 状态转换只有GM能触发
			gm := game.Group("")
			gm.Use(r.authMiddleware.RequireRole("GAME_MASTER"))
			{
				gm.POST("/map/change", r.gameHandler.ChangeMap)
				gm.POST("/reset", r.gameHandler.ResetGameState)
				gm.PUT("/turn", r.gameHandler.UpdateTurn)
				gm.DELETE("/token/:tokenId", r.gameHandler.RemoveToken)
			}
		}

		// 角色路由（所有权目录）
		characters := api.Group("/characters")
		characters.Use(r.authMiddleware.RequireAuth())
		{
			characters.GET("", r.characterHandler.ListCharacters)
			characters.GET("/:id", r.characterHandler.GetCharacter)

			gm := characters.Group("")
			gm.Use(r.authMiddleware.RequireRole("GAME_MASTER"))
			{
				gm.POST("", r.characterHandler.CreateCharacter)
				gm.PUT("/:id", r.characterHandler.UpdateCharacter)
				gm.DELETE("/:id", r.characterHandler.DeleteCharacter)
			}
		}

		// 在线状态
		api.GET("/online", r.authMiddleware.RequireAuth(), r.wsHandler.GetOnlineCount)
	}

	// WebSocket路由（握手时通过?token=认证）
	wsGroup := r.engine.Group("/ws")
	wsGroup.Use(r.authMiddleware.RequireAuth())
	{
		wsGroup.GET("/game", r.wsHandler.GameWebSocket)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器（同时启动广播中心）
func (r *Router) Run(addr string) error {
	go r.hub.Run()
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// Hub 获取广播中心
func (r *Router) Hub() *ws.Hub {
	return r.hub
}

// Services 获取服务集合
func (r *Router) Services() *service.Services {
	return r.services
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Stop 停止后台组件
func (r *Router) Stop() {
	r.rateLimiter.Stop()
}
