package service

import (
	"context"
	"time"

	"github.com/wfunc/arena-game/internal/models"
)

// Actor 执行操作的已认证用户视图（由中间件或网关从JWT还原）
type Actor struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsGameMaster 判断是否为GM
func (a *Actor) IsGameMaster() bool {
	return a.Role == models.RoleGameMaster
}

// AuthService 认证服务接口
type AuthService interface {
	// 注册登录
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// 验证
	ValidateToken(ctx context.Context, token string) (*Actor, error)
}

// GameStateService 游戏状态服务接口（单例聚合的唯一修改入口）
type GameStateService interface {
	// GetFullState 获取完整游戏状态（含所有棋子位置）
	GetFullState(ctx context.Context) (*GameStateResponse, error)
	// MoveToken 校验并落子，成功后广播token-moved事件
	MoveToken(ctx context.Context, actor *Actor, req *MoveRequest) (*TokenMovedEvent, error)
	// ChangeMap 换图：清空所有棋子位置（含离线玩家）并设置新地图
	ChangeMap(ctx context.Context, mapID string) error
	// Reset 重置：清空所有棋子位置，回合数归1，地图保持不变
	Reset(ctx context.Context) error
	// UpdateTurn 无条件覆盖回合数和阶段
	UpdateTurn(ctx context.Context, turnNumber int, turnPhase string) error
	// RemoveToken 从棋盘移除棋子（不存在时为空操作）
	RemoveToken(ctx context.Context, tokenID string) error
}

// CharacterService 角色服务接口（所有权目录维护）
type CharacterService interface {
	CreateCharacter(ctx context.Context, req *CreateCharacterRequest) (*models.Character, error)
	GetCharacter(ctx context.Context, id uint) (*models.Character, error)
	ListCharacters(ctx context.Context) ([]*models.Character, error)
	ListByPlayer(ctx context.Context, playerID uint) ([]*models.Character, error)
	UpdateCharacter(ctx context.Context, id uint, req *UpdateCharacterRequest) (*models.Character, error)
	DeleteCharacter(ctx context.Context, id uint) error
}

// EventPublisher 事件广播接口（由websocket hub实现，尽力而为、至多一次）
type EventPublisher interface {
	PublishTokenMoved(event *TokenMovedEvent)
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
	IP       string `json:"-"` // 客户端IP，由handler设置
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// MoveRequest 棋子移动请求（from坐标仅用于日志，目标坐标才参与校验）
type MoveRequest struct {
	TokenID   string `json:"token_id"`
	TokenType string `json:"token_type"` // PLAYER, ENEMY, NPC
	FromX     int    `json:"from_x"`
	FromY     int    `json:"from_y"`
	ToX       int    `json:"to_x"`
	ToY       int    `json:"to_y"`
}

// TokenMovedEvent 棋子移动广播事件（时间戳为毫秒）
type TokenMovedEvent struct {
	TokenID   string `json:"token_id"`
	TokenType string `json:"token_type"`
	MovedBy   string `json:"moved_by"`
	GridX     int    `json:"grid_x"`
	GridY     int    `json:"grid_y"`
	Timestamp int64  `json:"timestamp"`
}

// TokenPositionDTO 棋子位置视图
type TokenPositionDTO struct {
	TokenID     string    `json:"token_id"`
	TokenType   string    `json:"token_type"`
	GridX       int       `json:"grid_x"`
	GridY       int       `json:"grid_y"`
	LastMovedBy string    `json:"last_moved_by"`
	LastMoved   time.Time `json:"last_moved"`
	CharacterID *uint     `json:"character_id,omitempty"`
}

// GameStateResponse 完整游戏状态视图
type GameStateResponse struct {
	TurnNumber     int                `json:"turn_number"`
	TurnPhase      string             `json:"turn_phase"`
	CurrentMap     *string            `json:"current_map"`
	LastActivity   time.Time          `json:"last_activity"`
	TokenPositions []TokenPositionDTO `json:"token_positions"`
}

// CreateCharacterRequest 创建角色请求
type CreateCharacterRequest struct {
	Name       string         `json:"name" binding:"required,max=100"`
	Occupation string         `json:"occupation"`
	PlayerID   *uint          `json:"player_id"`
	IsNPC      bool           `json:"is_npc"`
	ImageURL   string         `json:"image_url"`
	Notes      string         `json:"notes"`
	Attributes models.JSONMap `json:"attributes"`
}

// UpdateCharacterRequest 更新角色请求
type UpdateCharacterRequest struct {
	Name       *string        `json:"name"`
	Occupation *string        `json:"occupation"`
	PlayerID   *uint          `json:"player_id"`
	ImageURL   *string        `json:"image_url"`
	Notes      *string        `json:"notes"`
	Attributes models.JSONMap `json:"attributes"` // nil表示不修改
}
