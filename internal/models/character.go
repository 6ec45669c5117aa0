package models

// Character 角色表（所有权目录：棋子归属校验的唯一依据）
type Character struct {
	BaseModel
	Name       string  `gorm:"size:100;not null" json:"name"`
	Occupation string  `gorm:"size:100" json:"occupation"`
	PlayerID   *uint   `gorm:"index" json:"player_id,omitempty"` // 拥有者，NPC时为空
	IsNPC      bool    `gorm:"default:false" json:"is_npc"`
	ImageURL   string  `gorm:"size:255" json:"image_url"`
	Notes      string  `gorm:"type:text" json:"notes"`
	Attributes JSONMap `gorm:"type:json" json:"attributes,omitempty"` // 属性表（力量、敏捷等自由键值）

	// 关联（只读归属查询，角色表始终是所有权的权威来源）
	Player *User `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
}

// IsOwnedBy 判断角色是否归属于指定用户
func (c *Character) IsOwnedBy(userID uint) bool {
	return c.PlayerID != nil && *c.PlayerID == userID
}
