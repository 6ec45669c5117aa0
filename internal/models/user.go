package models

import (
	"time"
)

// 用户角色
const (
	RolePlayer     = "PLAYER"      // 普通玩家
	RoleGameMaster = "GAME_MASTER" // 游戏主持人（GM）
)

// User 用户基础信息表
type User struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Nickname    string     `gorm:"size:100" json:"nickname"`
	Email       string     `gorm:"uniqueIndex;size:100" json:"email"`
	Role        string     `gorm:"size:20;default:'PLAYER'" json:"role"` // PLAYER, GAME_MASTER
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, frozen, banned
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP string     `gorm:"size:50" json:"last_login_ip"`

	// 关联
	Auth       UserAuth    `gorm:"foreignKey:UserID" json:"-"`
	Characters []Character `gorm:"foreignKey:PlayerID" json:"-"`
}

// UserAuth 用户认证信息表
type UserAuth struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	LoginAttempts int        `gorm:"default:0" json:"login_attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsGameMaster 判断用户是否为GM
func (u *User) IsGameMaster() bool {
	return u.Role == RoleGameMaster
}
