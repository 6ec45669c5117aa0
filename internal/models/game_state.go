package models

import (
	"time"
)

// GameStateID 全局游戏状态的固定ID（单例行，永远只有这一行）
const GameStateID uint = 1

// 回合阶段（仅作记录，不做状态机校验）
const (
	PhasePlayer     = "player"
	PhaseEnemy      = "enemy"
	PhaseResolution = "resolution"
)

// 棋子类型
const (
	TokenTypePlayer = "PLAYER"
	TokenTypeEnemy  = "ENEMY"
	TokenTypeNPC    = "NPC"
)

// 网格边界（棋盘为200x200，坐标范围0-199）
const (
	GridMin = 0
	GridMax = 199
)

// GameState 全局游戏状态表（单例聚合根）
type GameState struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TurnNumber   int       `gorm:"default:1;not null" json:"turn_number"`
	TurnPhase    string    `gorm:"size:20;default:'player';not null" json:"turn_phase"`
	CurrentMap   *string   `gorm:"size:100" json:"current_map"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联：当前地图上的所有棋子位置
	TokenPositions []TokenPosition `gorm:"foreignKey:GameStateID" json:"token_positions,omitempty"`
}

// TableName 指定表名
func (GameState) TableName() string {
	return "game_states"
}

// TokenPosition 棋子位置表（按tokenId唯一，不保留历史）
type TokenPosition struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameStateID uint      `gorm:"not null;index" json:"game_state_id"`
	TokenID     string    `gorm:"uniqueIndex;size:64;not null" json:"token_id"`
	TokenType   string    `gorm:"size:20;not null" json:"token_type"` // PLAYER, ENEMY, NPC
	GridX       int       `gorm:"not null" json:"grid_x"`
	GridY       int       `gorm:"not null" json:"grid_y"`
	LastMovedBy string    `gorm:"size:50" json:"last_moved_by"`
	LastMoved   time.Time `json:"last_moved"`
	CharacterID *uint     `gorm:"index" json:"character_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联（只读回查，不代表所有权转移）
	Character *Character `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
}

// TableName 指定表名
func (TokenPosition) TableName() string {
	return "token_positions"
}

// InBounds 判断坐标是否在网格范围内
func InBounds(x, y int) bool {
	return x >= GridMin && x <= GridMax && y >= GridMin && y <= GridMax
}
